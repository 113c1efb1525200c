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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"felicity/internal/auth/lockout"
	authservice "felicity/internal/auth/service"
	"felicity/internal/identity/models"
	identityservice "felicity/internal/identity/service"
	"felicity/internal/identity/store"
	"felicity/internal/jwttoken"
	authmw "felicity/pkg/platform/middleware/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRules() models.Rules {
	return models.Rules{
		EmailPattern:         regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		InstituteName:        "International Institute of Information Technology",
		InstituteEmailDomain: ".iiit.ac.in",
	}
}

func newRouter(t *testing.T, opts ...authservice.Option) http.Handler {
	t.Helper()

	identities := store.NewInMemory()
	idSvc := identityservice.New(identities, testRules())
	_, err := idSvc.CreateParticipant(context.Background(), identityservice.ParticipantSignup{
		FirstName:     "Asha",
		LastName:      "Rao",
		Email:         "asha@example.com",
		Password:      "correct-password",
		ContactNumber: "9999999999",
		OrgName:       "Example University",
		Type:          models.ParticipantNonIIIT,
	})
	require.NoError(t, err)

	tokens := jwttoken.NewService("test-signing-key", "felicity", 168*time.Hour)
	svc := authservice.New(identities, tokens, opts...)

	r := chi.NewRouter()
	New(svc, testLogger(), false).Register(r)
	return r
}

func loginBody(t *testing.T, email, password string) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestHandleLogin(t *testing.T) {
	t.Run("success delivers the token in cookie and body", func(t *testing.T) {
		router := newRouter(t)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
			loginBody(t, "asha@example.com", "correct-password")))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Regexp(t, `^/user/[0-9a-f-]+/dashboard$`, resp.RedirectURL)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie := cookies[0]
		assert.Equal(t, authmw.CookieName, cookie.Name)
		assert.Equal(t, resp.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.Greater(t, cookie.MaxAge, 0)
	})

	t.Run("unknown email and wrong password produce byte-identical responses", func(t *testing.T) {
		router := newRouter(t)

		unknown := httptest.NewRecorder()
		router.ServeHTTP(unknown, httptest.NewRequest(http.MethodPost, "/auth/login",
			loginBody(t, "nobody@example.com", "whatever")))

		wrong := httptest.NewRecorder()
		router.ServeHTTP(wrong, httptest.NewRequest(http.MethodPost, "/auth/login",
			loginBody(t, "asha@example.com", "wrong-password")))

		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, unknown.Body.Bytes(), wrong.Body.Bytes())
		assert.Empty(t, unknown.Result().Cookies())
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		router := newRouter(t)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
			loginBody(t, "asha@example.com", "")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lockout returns the same generic 401 body", func(t *testing.T) {
		locks := lockout.NewService(lockout.NewInMemoryStore(), 3, 15*time.Minute)
		router := newRouter(t, authservice.WithLockout(locks))

		var failedBody []byte
		for i := range 3 {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
				loginBody(t, "asha@example.com", "wrong-password")))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			if i == 0 {
				failedBody = rec.Body.Bytes()
			}
		}

		// Locked out: even the right password gets the identical response.
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
			loginBody(t, "asha@example.com", "correct-password")))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, failedBody, rec.Body.Bytes())
	})

	t.Run("missing signing key is a 500 without detail", func(t *testing.T) {
		identities := store.NewInMemory()
		idSvc := identityservice.New(identities, testRules())
		_, err := idSvc.CreateParticipant(context.Background(), identityservice.ParticipantSignup{
			FirstName:     "Asha",
			LastName:      "Rao",
			Email:         "asha@example.com",
			Password:      "correct-password",
			ContactNumber: "9999999999",
			OrgName:       "Example University",
			Type:          models.ParticipantNonIIIT,
		})
		require.NoError(t, err)

		tokens := jwttoken.NewService("", "felicity", time.Hour)
		svc := authservice.New(identities, tokens)
		r := chi.NewRouter()
		New(svc, testLogger(), false).Register(r)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
			loginBody(t, "asha@example.com", "correct-password")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "signing")
	})
}
