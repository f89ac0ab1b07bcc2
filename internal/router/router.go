package router

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/util"
)

// MessageRouteNotFound is the body message for unmatched requests.
const MessageRouteNotFound = "Route not found"

// Route maps a path prefix to a handler-set.
type Route struct {
	// Name identifies the route in errors and listings.
	Name string
	// Prefix is the mount path, starting with "/".
	Prefix string
	// Exact restricts the route to Prefix itself.
	Exact bool
	// Methods restricts the route to these methods; empty allows all.
	Methods []string
	// Handler serves matching requests with Prefix stripped.
	Handler pipeline.Handler
}

// compiledRoute is a route with its matchers built.
type compiledRoute struct {
	route   Route
	path    PathMatcher
	methods *MethodMatcher
}

// MatchResult contains the result of a route match.
type MatchResult struct {
	Route  Route
	Suffix string
}

// Option is a functional option for configuring the Table.
type Option func(*Table)

// WithNotFound replaces the handler for unmatched requests.
func WithNotFound(h pipeline.Handler) Option {
	return func(t *Table) {
		t.notFound = h
	}
}

// Table is an ordered, immutable route table.
type Table struct {
	routes   []compiledRoute
	notFound pipeline.Handler
}

// New builds a Table from routes in the given order.
func New(routes []Route, opts ...Option) (*Table, error) {
	t := &Table{
		routes:   make([]compiledRoute, 0, len(routes)),
		notFound: NotFound(),
	}

	names := make(map[string]struct{}, len(routes))
	for i, route := range routes {
		compiled, err := compile(route)
		if err != nil {
			return nil, fmt.Errorf("route %d (%s): %w", i, route.Name, err)
		}
		if route.Name != "" {
			if _, dup := names[route.Name]; dup {
				return nil, fmt.Errorf("duplicate route name: %s", route.Name)
			}
			names[route.Name] = struct{}{}
		}
		t.routes = append(t.routes, compiled)
	}

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func compile(route Route) (compiledRoute, error) {
	if route.Handler == nil {
		return compiledRoute{}, fmt.Errorf("handler is required: %w", util.ErrInvalidInput)
	}
	if !strings.HasPrefix(route.Prefix, "/") {
		return compiledRoute{}, fmt.Errorf("prefix %q must start with /: %w", route.Prefix, util.ErrInvalidInput)
	}

	prefix := route.Prefix
	if len(prefix) > 1 {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	route.Prefix = prefix

	var path PathMatcher = NewPrefixMatcher(prefix)
	if route.Exact {
		path = NewExactMatcher(prefix)
	}

	return compiledRoute{
		route:   route,
		path:    path,
		methods: NewMethodMatcher(route.Methods),
	}, nil
}

// Match returns the first route matching method and path.
func (t *Table) Match(method, path string) (*MatchResult, bool) {
	for i := range t.routes {
		cr := &t.routes[i]
		matched, suffix := cr.path.Match(path)
		if !matched || !cr.methods.Match(method) {
			continue
		}
		return &MatchResult{Route: cr.route, Suffix: suffix}, true
	}
	return nil, false
}

// Routes returns the routes in match order.
func (t *Table) Routes() []Route {
	routes := make([]Route, len(t.routes))
	for i := range t.routes {
		routes[i] = t.routes[i].route
	}
	return routes
}

// ServeHTTP implements pipeline.Handler.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	result, ok := t.Match(r.Method, r.URL.Path)
	if !ok {
		return t.notFound.ServeHTTP(w, r)
	}

	util.SetRoute(r.Context(), result.Route.Prefix)
	return result.Route.Handler.ServeHTTP(w, mount(r, result.Suffix))
}

type originalPathKey struct{}

// OriginalPathFromContext returns the request path as it was before the
// route prefix was stripped.
func OriginalPathFromContext(ctx context.Context) string {
	path, _ := ctx.Value(originalPathKey{}).(string)
	return path
}

// mount returns a shallow copy of r with its path replaced by suffix.
func mount(r *http.Request, suffix string) *http.Request {
	ctx := context.WithValue(r.Context(), originalPathKey{}, r.URL.Path)

	r2 := r.WithContext(ctx)
	u := new(url.URL)
	*u = *r.URL
	u.Path = suffix
	u.RawPath = ""
	r2.URL = u
	return r2
}

// NotFound returns the handler for requests no route matches.
func NotFound() pipeline.Handler {
	return pipeline.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return pipeline.Abort(http.StatusNotFound, MessageRouteNotFound)
	})
}
