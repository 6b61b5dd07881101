package transport

import (
	"fmt"
	"net/http"

	"github.com/raysh454/httpbrowser/internal/logging"
)

// Middleware decorates a round tripper.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Stack is a handler with middleware layered on top. The first pushed
// middleware is the outermost one.
type Stack struct {
	handler    http.RoundTripper
	middleware []Middleware
}

// NewStack wraps handler in an empty stack.
func NewStack(handler http.RoundTripper) *Stack {
	return &Stack{handler: handler}
}

// Push appends middleware below everything pushed before it.
func (s *Stack) Push(mw ...Middleware) *Stack {
	for _, m := range mw {
		if m != nil {
			s.middleware = append(s.middleware, m)
		}
	}
	return s
}

// Len reports the number of middleware layers.
func (s *Stack) Len() int { return len(s.middleware) }

// Resolve composes the stack into a single round tripper.
func (s *Stack) Resolve() http.RoundTripper {
	rt := s.handler
	for i := len(s.middleware) - 1; i >= 0; i-- {
		rt = s.middleware[i](rt)
	}
	return rt
}

// Build constructs the handler described by cfg and layers cfg.Middleware
// on top of it.
func Build(cfg Config, logger logging.Logger) (http.RoundTripper, error) {
	handler, err := NewHandler(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build handler: %w", err)
	}
	return NewStack(handler).Push(cfg.Middleware...).Resolve(), nil
}
