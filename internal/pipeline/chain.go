package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
)

// ErrContinuationReused is returned when a stage invokes its
// continuation more than once.
var ErrContinuationReused = errors.New("continuation already invoked")

// Handler is an HTTP handler that reports failures to the Boundary
// instead of writing error responses itself.
type Handler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP calls f(w, r).
func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// Adapt wraps a plain http.Handler. The wrapped handler never reports
// an error; panics still reach the Boundary.
func Adapt(h http.Handler) Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	})
}

// Next is the continuation handed to a stage. It runs the remainder of
// the chain and may be invoked at most once.
type Next func(w http.ResponseWriter, r *http.Request) error

// Stage is one named step of the chain.
type Stage struct {
	Name   string
	Handle func(w http.ResponseWriter, r *http.Request, next Next) error
}

// Chain is an ordered, fixed list of stages.
type Chain struct {
	stages []Stage
}

// NewChain creates a chain that runs stages in the given order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: append([]Stage(nil), stages...)}
}

// Names returns the stage names in execution order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.stages))
	for _, s := range c.stages {
		names = append(names, s.Name)
	}
	return names
}

// Then returns a Handler that runs every stage in order and finally h.
func (c *Chain) Then(h Handler) Handler {
	for i := len(c.stages) - 1; i >= 0; i-- {
		h = &stageHandler{stage: c.stages[i], next: h}
	}
	return h
}

// stageHandler binds a stage to its downstream handler.
type stageHandler struct {
	stage Stage
	next  Handler
}

// ServeHTTP runs the stage with a fresh single-use continuation.
func (s *stageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	var called atomic.Bool
	next := func(w http.ResponseWriter, r *http.Request) error {
		if called.Swap(true) {
			return fmt.Errorf("stage %q: %w", s.stage.Name, ErrContinuationReused)
		}
		return s.next.ServeHTTP(w, r)
	}
	return s.stage.Handle(w, r, next)
}
