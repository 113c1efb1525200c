// Package handler exposes the login endpoint. The session token is delivered
// twice: as an HttpOnly cookie for browser clients and in the response body
// for clients that prefer a bearer header.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"felicity/internal/auth/service"
	"felicity/pkg/platform/httputil"
	authmw "felicity/pkg/platform/middleware/auth"
	"felicity/pkg/requestcontext"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

// Handler wires the login endpoint to the auth service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	secureCookie bool
}

// New constructs the auth handler. secureCookie should be true in production
// so the cookie is only sent over TLS.
func New(service Service, logger *slog.Logger, secureCookie bool) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the HTTP response body for a successful login.
type LoginResponse struct {
	Msg         string `json:"msg"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		// Auth failures are expected traffic; log at info with no detail
		// beyond what the response already reveals.
		h.logger.InfoContext(ctx, "login rejected",
			"request_id", requestID,
			"client_ip", requestcontext.ClientIP(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.CookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   int(result.ExpiresAt.Sub(now).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		Msg:         "User logged in successfully",
		Token:       result.Token,
		RedirectURL: result.RedirectURL,
	})
}
