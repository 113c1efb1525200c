package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"felicity/internal/identity/models"
	"felicity/internal/identity/service"
	"felicity/internal/identity/store"
	id "felicity/pkg/domain"
	"felicity/pkg/requestcontext"
)

func testRules() models.Rules {
	return models.Rules{
		EmailPattern:                   regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		InstituteName:                  "International Institute of Information Technology",
		InstituteEmailDomain:           ".iiit.ac.in",
		RequireInstituteOrganizerEmail: true,
	}
}

func newTestHandler() (*Handler, *service.Service) {
	svc := service.New(store.NewInMemory(), testRules())
	return New(svc, testLogger()), svc
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(h *Handler, authCtx func(ctx context.Context) context.Context) http.Handler {
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(pr chi.Router) {
		if authCtx != nil {
			pr.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(authCtx(req.Context())))
				})
			})
		}
		h.RegisterProtected(pr)
	})
	return r
}

func asRole(role id.Role) func(ctx context.Context) context.Context {
	identityID := id.IdentityID(uuid.New())
	return func(ctx context.Context) context.Context {
		return requestcontext.WithIdentity(ctx, identityID, "actor@example.com", role)
	}
}

func signupBody(t *testing.T, overrides map[string]any) *bytes.Reader {
	t.Helper()
	body := map[string]any{
		"first_name":       "Asha",
		"last_name":        "Rao",
		"email":            "asha@example.com",
		"password":         "s3cret-pass",
		"contact_number":   "9999999999",
		"org_name":         "Example University",
		"participant_type": "Non-IIIT",
	}
	for k, v := range overrides {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestHandleSignup(t *testing.T) {
	t.Run("creates a participant and omits the password", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", signupBody(t, nil)))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "asha@example.com", resp["email"])
		assert.NotContains(t, rec.Body.String(), "s3cret-pass")
		assert.NotContains(t, resp, "password_hash")
	})

	t.Run("institute org name with Non-IIIT type is a 400", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, nil)

		body := signupBody(t, map[string]any{
			"org_name": "International Institute of Information Technology",
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing required fields is a 400", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, nil)

		body := signupBody(t, map[string]any{"password": ""})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email is a 400", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", signupBody(t, nil)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", signupBody(t, nil)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListRoleGate(t *testing.T) {
	t.Run("participant listing all identities is a 403", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, asRole(id.RoleParticipant))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin listing all identities is a 200", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, asRole(id.RoleAdmin))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleGet(t *testing.T) {
	h, svc := newTestHandler()
	created, err := svc.CreateParticipant(context.Background(), service.ParticipantSignup{
		FirstName:     "Asha",
		LastName:      "Rao",
		Email:         "asha@example.com",
		Password:      "s3cret-pass",
		ContactNumber: "9999999999",
		OrgName:       "Example University",
		Type:          models.ParticipantNonIIIT,
	})
	require.NoError(t, err)

	t.Run("admin reads any identity", func(t *testing.T) {
		router := newRouter(h, asRole(id.RoleAdmin))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+created.ID.String(), nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("another participant is forbidden", func(t *testing.T) {
		router := newRouter(h, asRole(id.RoleParticipant))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+created.ID.String(), nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		router := newRouter(h, asRole(id.RoleAdmin))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleCreateOrganizer(t *testing.T) {
	body := func() *bytes.Reader {
		raw, _ := json.Marshal(map[string]any{
			"email":        "club@students.iiit.ac.in",
			"password":     "s3cret-pass",
			"category":     "Club",
			"display_name": "Programming Club",
		})
		return bytes.NewReader(raw)
	}

	t.Run("admin provisions an organizer", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, asRole(id.RoleAdmin))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", body()))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("organizer cannot provision organizers", func(t *testing.T) {
		h, _ := newTestHandler()
		router := newRouter(h, asRole(id.RoleOrganizer))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", body()))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
