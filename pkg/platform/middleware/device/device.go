// Package device summarizes the client user-agent into a short
// "browser version (os)" string carried in the request context. The summary
// feeds audit events and security logs; it is never an authorization input.
package device

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"felicity/pkg/requestcontext"
)

// Middleware parses the User-Agent header and stores a compact summary in
// the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDeviceSummary(r.Context(), Summarize(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Summarize reduces a raw user-agent string to "browser version (os)".
// Unparseable agents come back as "unknown".
func Summarize(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}
	os := ua.OS()
	if os == "" {
		os = "unknown os"
	}
	return fmt.Sprintf("%s %s (%s)", name, version, os)
}
