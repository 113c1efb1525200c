// Package auth authenticates requests. It extracts the session token from
// the auth cookie or the Authorization header (either is equivalent),
// validates it, and attaches the verified identity to the request context.
// Capability checks happen later, against internal/policy.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
	"felicity/pkg/platform/httputil"
	"felicity/pkg/requestcontext"
)

// CookieName is the session cookie written by the login handler.
const CookieName = "auth_token"

// Claims is the verified token payload the middleware expects back from the
// validator.
type Claims struct {
	IdentityID string
	Email      string
	Role       string
}

// TokenValidator validates a signed token string.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAuth rejects requests without a valid token. Missing token and
// invalid token both map to 401; the distinction is logged, not returned.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token := TokenFromRequest(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthenticated request - missing token",
					"request_id", requestID,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Token is missing. Please log in."))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request - invalid token",
					"request_id", requestID,
					"path", r.URL.Path,
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			identityID, err := id.ParseIdentityID(claims.IdentityID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request - malformed subject claim",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}
			role, err := id.ParseRole(claims.Role)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request - malformed role claim",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = requestcontext.WithIdentity(ctx, identityID, claims.Email, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest pulls the token from the auth cookie or a bearer header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		return after
	}
	return ""
}
