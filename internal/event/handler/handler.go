// Package handler exposes the event endpoints: public reads, capability-
// gated lifecycle mutations, and the participant registration protocol.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"felicity/internal/event/models"
	"felicity/internal/event/service"
	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
	"felicity/pkg/platform/httputil"
	"felicity/pkg/requestcontext"
)

// Service defines the event operations the handler needs.
type Service interface {
	Create(ctx context.Context, input service.CreateEvent) (*models.Event, error)
	Get(ctx context.Context, eventID id.EventID) (*service.View, error)
	List(ctx context.Context) ([]*service.View, error)
	Update(ctx context.Context, eventID id.EventID, patch models.Patch) (*models.Event, error)
	Delete(ctx context.Context, eventID id.EventID) error
	Register(ctx context.Context, eventID id.EventID, formResponses map[string]any) (*service.Ticket, error)
	Cancel(ctx context.Context, eventID id.EventID) error
	ListRegistrations(ctx context.Context, eventID id.EventID) ([]models.Registration, error)
}

// Handler wires event endpoints to the event service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated read endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/events", h.HandleList)
	r.Get("/events/{id}", h.HandleGet)
}

// RegisterProtected mounts endpoints that require authentication.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/events", h.HandleCreate)
	r.Put("/events/{id}", h.HandleUpdate)
	r.Delete("/events/{id}", h.HandleDelete)
	r.Post("/events/{id}/register", h.HandleRegister)
	r.Delete("/events/{id}/register", h.HandleCancel)
	r.Get("/events/{id}/registrations", h.HandleListRegistrations)
}

// HandleList handles GET /events.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

// HandleGet handles GET /events/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleCreate handles POST /events.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	event, err := h.service.Create(ctx, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event created",
		"request_id", requestID,
		"event_id", event.ID,
		"owner_id", event.OwnerID,
	)
	httputil.WriteJSON(w, http.StatusCreated, event)
}

// HandleUpdate handles PUT /events/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	event, err := h.service.Update(ctx, eventID, req.toPatch())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event updated",
		"request_id", requestID,
		"event_id", event.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, event)
}

// HandleDelete handles DELETE /events/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event deleted",
		"request_id", requestcontext.RequestID(ctx),
		"event_id", eventID,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"msg": "Event deleted"})
}

// HandleRegister handles POST /events/{id}/register. The body is optional;
// when present it carries free-form form responses.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	ticket, err := h.service.Register(ctx, eventID, req.FormResponses)
	if err != nil {
		h.logger.InfoContext(ctx, "registration rejected",
			"request_id", requestID,
			"event_id", eventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration created",
		"request_id", requestID,
		"event_id", eventID,
		"registration_id", ticket.RegistrationID,
	)
	httputil.WriteJSON(w, http.StatusOK, ticket)
}

// HandleCancel handles DELETE /events/{id}/register.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Cancel(ctx, eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"msg": "Registration cancelled"})
}

// HandleListRegistrations handles GET /events/{id}/registrations.
func (h *Handler) HandleListRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	registrations, err := h.service.ListRegistrations(r.Context(), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if registrations == nil {
		registrations = []models.Registration{}
	}
	httputil.WriteJSON(w, http.StatusOK, registrations)
}
