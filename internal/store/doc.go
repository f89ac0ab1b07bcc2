// Package store manages the process-wide backing-store connection.
//
// A Cache holds at most one live Handle. The first Ensure call starts a
// connection attempt and every concurrent caller waits on that same
// attempt, so a cold start with many requests dials once. A failed
// attempt is dropped from the cache and the next Ensure dials again.
//
// The connection-ensure pipeline stage places the handle on the request
// context; handlers read it back with HandleFromContext.
package store
