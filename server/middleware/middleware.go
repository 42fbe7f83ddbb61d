package middleware

import (
	"net/http"
	"slices"
)

// Middleware wraps an http.Handler. Server middleware applies to the whole
// ServeMux, so Gin routes and plain handlers see the same stack.
type Middleware func(http.Handler) http.Handler

// Chain composes mws so that the first one sees the request first.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, mw := range slices.Backward(mws) {
			h = mw(h)
		}
		return h
	}
}
