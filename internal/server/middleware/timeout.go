package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout returns middleware that bounds every request context by d, which in
// turn bounds the full upstream retry sequence behind it. d <= 0 disables the
// bound.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
