package router

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix     string
		path       string
		wantMatch  bool
		wantSuffix string
	}{
		{prefix: "/api/user", path: "/api/user", wantMatch: true, wantSuffix: "/"},
		{prefix: "/api/user", path: "/api/user/", wantMatch: true, wantSuffix: "/"},
		{prefix: "/api/user", path: "/api/user/profile/avatar", wantMatch: true, wantSuffix: "/profile/avatar"},
		{prefix: "/api/user", path: "/api/users", wantMatch: false},
		{prefix: "/api/user", path: "/api", wantMatch: false},
		{prefix: "/", path: "/anything", wantMatch: true, wantSuffix: "/anything"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.prefix+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			m := NewPrefixMatcher(tt.prefix)
			matched, suffix := m.Match(tt.path)
			assert.Equal(t, tt.wantMatch, matched)
			assert.Equal(t, tt.wantSuffix, suffix)
			assert.Equal(t, "prefix", m.Type())
			assert.Equal(t, tt.prefix, m.Pattern())
		})
	}
}

func TestExactMatcher(t *testing.T) {
	t.Parallel()

	m := NewExactMatcher("/api/health")

	matched, suffix := m.Match("/api/health")
	assert.True(t, matched)
	assert.Equal(t, "/", suffix)

	matched, _ = m.Match("/api/health/")
	assert.True(t, matched)

	matched, _ = m.Match("/api/health/deep")
	assert.False(t, matched)

	assert.Equal(t, "exact", m.Type())
	assert.Equal(t, "/api/health", m.Pattern())
}

func TestMethodMatcher(t *testing.T) {
	t.Parallel()

	all := NewMethodMatcher(nil)
	assert.True(t, all.Match(http.MethodDelete))

	get := NewMethodMatcher([]string{"get"})
	assert.True(t, get.Match(http.MethodGet))
	assert.True(t, get.Match(http.MethodHead))
	assert.False(t, get.Match(http.MethodPost))
}
