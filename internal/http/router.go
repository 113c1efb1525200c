// Package httpapi assembles the HTTP surface: the shared middleware chain,
// the public routes, and the authenticated routes behind the token check.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	authhandler "felicity/internal/auth/handler"
	eventhandler "felicity/internal/event/handler"
	identityhandler "felicity/internal/identity/handler"
	"felicity/internal/platform/metrics"
	"felicity/internal/platform/postgres"
	"felicity/pkg/platform/httputil"
	authmw "felicity/pkg/platform/middleware/auth"
	"felicity/pkg/platform/middleware/device"
	"felicity/pkg/platform/middleware/metadata"
	"felicity/pkg/platform/middleware/requestid"
	"felicity/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router composes. The pool is optional; health
// reports degraded storage when it is absent.
type Deps struct {
	Identity  *identityhandler.Handler
	Auth      *authhandler.Handler
	Event     *eventhandler.Handler
	Validator authmw.TokenValidator
	Logger    *slog.Logger
	Pool      *pgxpool.Pool
}

// NewRouter builds the full route tree. Request time is pinned first so every
// check in a request observes the same instant.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(requestid.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(device.Middleware)

	r.Get("/healthz", healthHandler(d.Pool))
	r.Handle("/metrics", metrics.Handler())

	// Public: signup, login, and event reads need no token.
	r.Group(func(r chi.Router) {
		d.Identity.RegisterPublic(r)
		d.Auth.Register(r)
		d.Event.RegisterPublic(r)
	})

	// Protected: everything else sits behind token validation.
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.Validator, d.Logger))
		d.Identity.RegisterProtected(r)
		d.Event.RegisterProtected(r)
	})

	return r
}

func healthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK

		if pool != nil {
			if err := postgres.Health(r.Context(), pool); err != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				code = http.StatusServiceUnavailable
			} else {
				status["database"] = "ok"
			}
		}

		httputil.WriteJSON(w, code, status)
	}
}
