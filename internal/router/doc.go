// Package router dispatches requests to feature handler-sets by path
// prefix.
//
// A Table is an ordered list of routes built once at startup and never
// modified. The first route whose prefix matches on a path-segment
// boundary wins: "/api/user" matches "/api/user" and "/api/user/me" but
// not "/api/users". The handler receives the request with the prefix
// stripped, so r.URL.Path is the remaining suffix and always starts with
// "/". Routes can also be exact and restricted to a set of methods.
//
// Requests that match nothing are answered by NotFound.
//
//	table, err := router.New([]router.Route{
//	    {Name: "health", Prefix: "/api/health", Exact: true, Methods: []string{"GET"}, Handler: health},
//	    {Name: "recipes", Prefix: "/api/recipes", Handler: recipes},
//	})
package router
