// Package features lists the collaborator handler-sets mounted behind the
// pipeline and turns them into router routes.
package features

import (
	"net/http"

	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/router"
)

// Collaborator names.
const (
	Auth          = "auth"
	Recipes       = "recipes"
	User          = "user"
	Subscriptions = "subscriptions"
	Notifications = "notifications"
)

// MessageUnavailable is returned by collaborators that are not mounted.
const MessageUnavailable = "Service not available"

// Feature is one collaborator handler-set mounted under Prefix.
type Feature struct {
	Name    string
	Prefix  string
	Handler pipeline.Handler
}

// Set holds the collaborator handler-sets. A nil field is served by
// Unavailable.
type Set struct {
	Auth          pipeline.Handler
	Recipes       pipeline.Handler
	User          pipeline.Handler
	Subscriptions pipeline.Handler
	Notifications pipeline.Handler
}

// Registry returns the collaborators in mount order.
func Registry(set Set) []Feature {
	return []Feature{
		{Name: Auth, Prefix: "/api/auth", Handler: orUnavailable(set.Auth, Auth)},
		{Name: Recipes, Prefix: "/api/recipes", Handler: orUnavailable(set.Recipes, Recipes)},
		{Name: User, Prefix: "/api/user", Handler: orUnavailable(set.User, User)},
		{Name: Subscriptions, Prefix: "/api/subscriptions", Handler: orUnavailable(set.Subscriptions, Subscriptions)},
		{Name: Notifications, Prefix: "/api/notifications", Handler: orUnavailable(set.Notifications, Notifications)},
	}
}

// Routes converts features into prefix routes, preserving order.
func Routes(features []Feature) []router.Route {
	routes := make([]router.Route, 0, len(features))
	for _, f := range features {
		routes = append(routes, router.Route{
			Name:    f.Name,
			Prefix:  f.Prefix,
			Handler: f.Handler,
		})
	}
	return routes
}

// Unavailable answers every request with 501 for a collaborator that is
// not mounted in this build.
func Unavailable(name string) pipeline.Handler {
	return pipeline.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) error {
		return pipeline.Abort(http.StatusNotImplemented, MessageUnavailable).
			WithHeader("X-Feature", name)
	})
}

func orUnavailable(h pipeline.Handler, name string) pipeline.Handler {
	if h == nil {
		return Unavailable(name)
	}
	return h
}
