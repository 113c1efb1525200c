// Package handler exposes identity endpoints: public participant signup and
// admin-gated identity reads and organizer provisioning.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"felicity/internal/identity/models"
	"felicity/internal/identity/service"
	id "felicity/pkg/domain"
	"felicity/pkg/platform/httputil"
	"felicity/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
type Service interface {
	CreateParticipant(ctx context.Context, input service.ParticipantSignup) (*models.Identity, error)
	CreateOrganizer(ctx context.Context, input service.OrganizerSignup) (*models.Identity, error)
	Get(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	List(ctx context.Context) ([]*models.Identity, error)
}

// Handler wires identity endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated signup endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/signup", h.HandleSignup)
}

// RegisterProtected mounts endpoints that require authentication.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/users", h.HandleList)
	r.Post("/users", h.HandleCreateOrganizer)
	r.Get("/users/{id}", h.HandleGet)
}

// HandleSignup handles POST /auth/signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SignupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	identity, err := h.service.CreateParticipant(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "signup rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "participant signed up",
		"request_id", requestID,
		"identity_id", identity.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, identity)
}

// HandleCreateOrganizer handles POST /users (admin only).
func (h *Handler) HandleCreateOrganizer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateOrganizerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	identity, err := h.service.CreateOrganizer(ctx, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "organizer provisioned",
		"request_id", requestID,
		"identity_id", identity.ID,
		"provisioned_by", requestcontext.IdentityID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, identity)
}

// HandleList handles GET /users (admin only).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	identities, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identities)
}

// HandleGet handles GET /users/{id} (self or admin).
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	identity, err := h.service.Get(r.Context(), identityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identity)
}
