package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authhandler "felicity/internal/auth/handler"
	authservice "felicity/internal/auth/service"
	eventhandler "felicity/internal/event/handler"
	eventservice "felicity/internal/event/service"
	eventstore "felicity/internal/event/store"
	identityhandler "felicity/internal/identity/handler"
	"felicity/internal/identity/models"
	identityservice "felicity/internal/identity/service"
	identitystore "felicity/internal/identity/store"
	"felicity/internal/jwttoken"
	authmw "felicity/pkg/platform/middleware/auth"
)

func testRules() models.Rules {
	return models.Rules{
		EmailPattern:                   regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		InstituteName:                  "International Institute of Information Technology",
		InstituteEmailDomain:           ".iiit.ac.in",
		RequireInstituteOrganizerEmail: true,
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	identities := identitystore.NewInMemory()
	tokens := jwttoken.NewService("test-secret", "felicity", time.Hour)

	identitySvc := identityservice.New(identities, testRules())
	authSvc := authservice.New(identities, tokens)
	eventSvc := eventservice.New(eventstore.NewInMemory(), identities)

	return NewRouter(Deps{
		Identity:  identityhandler.New(identitySvc, log),
		Auth:      authhandler.New(authSvc, log, false),
		Event:     eventhandler.New(eventSvc, log),
		Validator: tokens,
		Logger:    log,
	})
}

func postJSON(t *testing.T, router http.Handler, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == authmw.CookieName {
			return c
		}
	}
	t.Fatal("auth cookie not set")
	return nil
}

// TestSignupLoginRegisterFlow walks the whole surface: a participant signs
// up, logs in, and is gated off event creation but allowed to register once
// an event exists.
func TestSignupLoginRegisterFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/auth/signup", map[string]any{
		"email":            "ada@example.com",
		"password":         "correct horse battery",
		"first_name":       "Ada",
		"last_name":        "Lovelace",
		"contact_number":   "9999999999",
		"org_name":         "Analytical Engines Ltd",
		"participant_type": "Non-IIIT",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postJSON(t, router, "/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := authCookie(t, rec)

	t.Run("participants cannot create events", func(t *testing.T) {
		rec := postJSON(t, router, "/events", map[string]any{"name": "Hack1"}, cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("protected routes reject missing tokens", func(t *testing.T) {
		rec := postJSON(t, router, "/events", map[string]any{"name": "Hack1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("public event list needs no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLoginFailuresAreUniform(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/auth/signup", map[string]any{
		"email":            "ada@example.com",
		"password":         "correct horse battery",
		"first_name":       "Ada",
		"last_name":        "Lovelace",
		"contact_number":   "9999999999",
		"org_name":         "Analytical Engines Ltd",
		"participant_type": "Non-IIIT",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := postJSON(t, router, "/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "nope",
	})
	unknownEmail := postJSON(t, router, "/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
