// Package requesttime freezes "now" once per request. Deadline checks,
// record timestamps, and audit entries within a single request all observe
// the same instant.
package requesttime

import (
	"net/http"
	"time"

	"felicity/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
