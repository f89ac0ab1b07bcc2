// Package pipeline provides the ordered stage chain that every request
// passes through before it is dispatched, and the error boundary that
// turns failures into uniform JSON responses.
//
// A Stage receives the request, the response writer and a continuation.
// On the success path it calls the continuation exactly once; to end the
// request early it returns Abort(status, message) and never calls the
// continuation. Stages do not write terminal responses themselves: the
// Boundary renders every AbortError and every unexpected error, which
// keeps "respond and continue" from happening by construction. Calling
// a continuation twice is refused with ErrContinuationReused.
//
//	chain := pipeline.NewChain(
//	    middleware.SecurityHeaders(),
//	    middleware.CORS(corsCfg),
//	)
//	handler := pipeline.Boundary(chain.Then(table),
//	    pipeline.WithLogger(logger),
//	    pipeline.WithProduction(cfg.IsProduction()),
//	)
package pipeline
