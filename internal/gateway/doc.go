// Package gateway assembles the request pipeline and runs it.
//
// A Gateway owns the process-wide state shared by every request: the
// backing-store connection cache and the rate-limit windows. It builds
// the public handler
//
//	edge filter -> error boundary -> middleware chain -> route table
//
// and serves it on the public listener, with metrics and probes on a
// separate operational listener.
//
// Usage:
//
//	gw, err := gateway.New(cfg, gateway.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := gw.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer gw.Stop(ctx)
package gateway
