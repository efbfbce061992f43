// Package middleware provides the HTTP middleware stack applied per module:
// CORS, request logging, and request instrumentation.
package middleware

import "net/http"

// Func wraps a handler with cross-cutting behaviour.
type Func = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first registered
// middleware is the outermost.
type System interface {
	Use(mws ...Func)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack struct {
	mws []Func
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mws ...Func) {
	for _, mw := range mws {
		if mw != nil {
			s.mws = append(s.mws, mw)
		}
	}
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.mws) - 1; i >= 0; i-- {
		handler = s.mws[i](handler)
	}
	return handler
}

func (s *stack) Len() int {
	return len(s.mws)
}
