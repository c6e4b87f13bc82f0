// Package httpmiddleware provides the net/http middleware chain shared by the
// API server: panic recovery, CORS, rate limiting, request IDs, request
// logging and OpenTelemetry instrumentation.
package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost one
// and sees the request first.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RouteFinder returns the route pattern that served r, or "" when unknown.
// It is consulted after the wrapped handler returns.
type RouteFinder func(r *http.Request) string

// ChiRoute finds the matched chi route pattern. Middlewares using it must be
// installed with chi's Router.Use so the routing context is shared.
func ChiRoute(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
