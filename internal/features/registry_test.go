package features

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/cookverse-gateway/internal/pipeline"
	"github.com/vyrodovalexey/cookverse-gateway/internal/router"
)

func TestRegistry_Order(t *testing.T) {
	t.Parallel()

	features := Registry(Set{})

	prefixes := make([]string, 0, len(features))
	for _, f := range features {
		prefixes = append(prefixes, f.Prefix)
		assert.NotNil(t, f.Handler, f.Name)
	}

	assert.Equal(t, []string{
		"/api/auth",
		"/api/recipes",
		"/api/user",
		"/api/subscriptions",
		"/api/notifications",
	}, prefixes)
}

func TestRoutes_DispatchToCollaborators(t *testing.T) {
	t.Parallel()

	recipes := pipeline.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return pipeline.WriteJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path})
	})

	table, err := router.New(Routes(Registry(Set{Recipes: recipes})))
	require.NoError(t, err)
	h := pipeline.Boundary(table)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
		wantHeader string
	}{
		{
			name:       "mounted collaborator sees suffix",
			path:       "/api/recipes/42",
			wantStatus: http.StatusOK,
			wantBody:   `{"path":"/42"}`,
		},
		{
			name:       "unmounted collaborator",
			path:       "/api/user/profile",
			wantStatus: http.StatusNotImplemented,
			wantBody:   `{"message":"Service not available"}`,
			wantHeader: User,
		},
		{
			name:       "prefix needs segment boundary",
			path:       "/api/users",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"Route not found"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantHeader, rec.Header().Get("X-Feature"))
		})
	}
}
