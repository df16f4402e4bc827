package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds every request with an outer deadline. It is set
// wider than the longest dispatch timeout, so cancellation normally comes
// from the per-operation bound, not from here. Handlers observe the deadline
// through the request context; nothing is forcibly terminated.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
