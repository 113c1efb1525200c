// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
// Tests inject values directly:
//
//	ctx = requestcontext.WithIdentity(ctx, identityID, email, role)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "felicity/pkg/domain"
)

type (
	identityIDKey    struct{}
	emailKey         struct{}
	roleKey          struct{}
	clientIPKey      struct{}
	userAgentKey     struct{}
	deviceSummaryKey struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// -----------------------------------------------------------------------------
// Auth context (verified identity attached by the auth middleware)
// -----------------------------------------------------------------------------

// IdentityID retrieves the authenticated identity ID from the context.
// Returns the zero value if the request is unauthenticated.
func IdentityID(ctx context.Context) id.IdentityID {
	if identityID, ok := ctx.Value(identityIDKey{}).(id.IdentityID); ok {
		return identityID
	}
	return id.IdentityID{}
}

// Email retrieves the authenticated email from the context.
func Email(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey{}).(string); ok {
		return email
	}
	return ""
}

// Role retrieves the authenticated role from the context. Empty when
// unauthenticated; callers gate on policy, not on emptiness alone.
func Role(ctx context.Context) id.Role {
	if role, ok := ctx.Value(roleKey{}).(id.Role); ok {
		return role
	}
	return ""
}

// WithIdentity injects a verified identity into the context. Only the auth
// middleware (and tests) should call this.
func WithIdentity(ctx context.Context, identityID id.IdentityID, email string, role id.Role) context.Context {
	ctx = context.WithValue(ctx, identityIDKey{}, identityID)
	ctx = context.WithValue(ctx, emailKey{}, email)
	ctx = context.WithValue(ctx, roleKey{}, role)
	return ctx
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent, device summary)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// DeviceSummary retrieves the parsed user-agent summary ("Firefox 143 (Linux)")
// from the context. Used for audit events; never for authorization.
func DeviceSummary(ctx context.Context) string {
	if summary, ok := ctx.Value(deviceSummaryKey{}).(string); ok {
		return summary
	}
	return ""
}

// WithDeviceSummary injects a device summary into a context.
func WithDeviceSummary(ctx context.Context, summary string) context.Context {
	return context.WithValue(ctx, deviceSummaryKey{}, summary)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. All checks within one
// request (deadline, timestamps, audit) observe the same instant. Falls back
// to time.Now for non-HTTP contexts such as workers and seeds.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that need deterministic deadlines.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
