package router

import (
	"net/http"
	"strings"
)

// PathMatcher is the interface for path matching.
type PathMatcher interface {
	// Match reports whether path matches and returns the part of path
	// left for the handler.
	Match(path string) (matched bool, suffix string)
	Type() string
	Pattern() string
}

// ExactMatcher matches exact paths, tolerating one trailing slash.
type ExactMatcher struct {
	path string
}

// NewExactMatcher creates a new exact path matcher.
func NewExactMatcher(path string) *ExactMatcher {
	return &ExactMatcher{path: path}
}

// Match checks if the path matches exactly.
func (m *ExactMatcher) Match(path string) (matched bool, suffix string) {
	if path == m.path || (m.path != "/" && path == m.path+"/") {
		return true, "/"
	}
	return false, ""
}

// Type returns the matcher type.
func (m *ExactMatcher) Type() string {
	return "exact"
}

// Pattern returns the pattern.
func (m *ExactMatcher) Pattern() string {
	return m.path
}

// PrefixMatcher matches path prefixes on segment boundaries.
type PrefixMatcher struct {
	prefix string
}

// NewPrefixMatcher creates a new prefix path matcher.
func NewPrefixMatcher(prefix string) *PrefixMatcher {
	return &PrefixMatcher{prefix: prefix}
}

// Match checks if the path starts with the prefix.
func (m *PrefixMatcher) Match(path string) (matched bool, suffix string) {
	if m.prefix == "/" {
		return strings.HasPrefix(path, "/"), path
	}
	if !strings.HasPrefix(path, m.prefix) {
		return false, ""
	}

	rest := path[len(m.prefix):]
	switch {
	case rest == "":
		return true, "/"
	case rest[0] == '/':
		return true, rest
	default:
		return false, ""
	}
}

// Type returns the matcher type.
func (m *PrefixMatcher) Type() string {
	return "prefix"
}

// Pattern returns the pattern.
func (m *PrefixMatcher) Pattern() string {
	return m.prefix
}

// MethodMatcher matches HTTP methods. An empty matcher accepts any method.
type MethodMatcher struct {
	methods map[string]bool
}

// NewMethodMatcher creates a new method matcher.
func NewMethodMatcher(methods []string) *MethodMatcher {
	m := &MethodMatcher{methods: make(map[string]bool, len(methods))}
	for _, method := range methods {
		m.methods[strings.ToUpper(method)] = true
	}
	// HEAD is served wherever GET is.
	if m.methods[http.MethodGet] {
		m.methods[http.MethodHead] = true
	}
	return m
}

// Match checks if the method matches.
func (m *MethodMatcher) Match(method string) bool {
	if len(m.methods) == 0 {
		return true
	}
	return m.methods[method]
}
