// Package health provides the public health endpoint and the
// liveness/readiness probes served on the operations listener.
//
// The public endpoint answers from process state alone and never
// touches the backing store. Readiness runs the registered checks, such
// as StoreCheck, and reports 503 when any of them is unhealthy.
package health
