package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"felicity/internal/identity/models"
	"felicity/internal/identity/store"
	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
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

func newService() (*Service, *store.InMemory) {
	identities := store.NewInMemory()
	return New(identities, testRules()), identities
}

func participantSignup(email string) ParticipantSignup {
	return ParticipantSignup{
		FirstName:     "Asha",
		LastName:      "Rao",
		Email:         email,
		Password:      "s3cret-pass",
		ContactNumber: "9999999999",
		OrgName:       "Example University",
		Type:          models.ParticipantNonIIIT,
	}
}

func adminCtx() context.Context {
	return requestcontext.WithIdentity(context.Background(),
		id.IdentityID(uuid.New()), "admin@felicity.iiit.ac.in", id.RoleAdmin)
}

func TestCreateParticipant(t *testing.T) {
	t.Run("creates and sanitizes", func(t *testing.T) {
		svc, identities := newService()

		created, err := svc.CreateParticipant(context.Background(), participantSignup("asha@example.com"))
		require.NoError(t, err)
		assert.Empty(t, created.PasswordHash)
		assert.Equal(t, id.RoleParticipant, created.Role)

		// The stored record carries a bcrypt hash of the password.
		stored, err := identities.FindByEmail(context.Background(), "asha@example.com")
		require.NoError(t, err)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.CreateParticipant(context.Background(), participantSignup("dup@example.com"))
		require.NoError(t, err)

		_, err = svc.CreateParticipant(context.Background(), participantSignup("DUP@example.com"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("institute org name with Non-IIIT type is rejected", func(t *testing.T) {
		svc, _ := newService()
		input := participantSignup("asha@example.com")
		input.OrgName = "International Institute of Information Technology"

		_, err := svc.CreateParticipant(context.Background(), input)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("missing password is a validation error", func(t *testing.T) {
		svc, _ := newService()
		input := participantSignup("asha@example.com")
		input.Password = ""

		_, err := svc.CreateParticipant(context.Background(), input)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestCreateOrganizer(t *testing.T) {
	organizerInput := OrganizerSignup{
		Email:       "club@students.iiit.ac.in",
		Password:    "s3cret-pass",
		Category:    models.CategoryClub,
		DisplayName: "Programming Club",
	}

	t.Run("admin provisions an organizer", func(t *testing.T) {
		svc, _ := newService()
		created, err := svc.CreateOrganizer(adminCtx(), organizerInput)
		require.NoError(t, err)
		assert.Equal(t, id.RoleOrganizer, created.Role)
		require.NotNil(t, created.Organizer)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		svc, _ := newService()
		ctx := requestcontext.WithIdentity(context.Background(),
			id.IdentityID(uuid.New()), "p@example.com", id.RoleParticipant)

		_, err := svc.CreateOrganizer(ctx, organizerInput)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestEnsureAdmin(t *testing.T) {
	t.Run("seeds once and is idempotent", func(t *testing.T) {
		svc, identities := newService()

		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@felicity.iiit.ac.in", "admin-pass"))
		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@felicity.iiit.ac.in", "admin-pass"))

		all, err := identities.List(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, id.RoleAdmin, all[0].Role)
	})

	t.Run("no-op when unconfigured", func(t *testing.T) {
		svc, identities := newService()
		require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))

		all, err := identities.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestReadPolicy(t *testing.T) {
	svc, _ := newService()
	created, err := svc.CreateParticipant(context.Background(), participantSignup("asha@example.com"))
	require.NoError(t, err)

	t.Run("self read succeeds", func(t *testing.T) {
		ctx := requestcontext.WithIdentity(context.Background(), created.ID, created.Email, created.Role)
		got, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Empty(t, got.PasswordHash)
	})

	t.Run("reading another identity is forbidden", func(t *testing.T) {
		ctx := requestcontext.WithIdentity(context.Background(),
			id.IdentityID(uuid.New()), "other@example.com", id.RoleParticipant)
		_, err := svc.Get(ctx, created.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("admin reads any identity", func(t *testing.T) {
		got, err := svc.Get(adminCtx(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("unknown identity is not found for admin", func(t *testing.T) {
		_, err := svc.Get(adminCtx(), id.IdentityID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("list is admin-only", func(t *testing.T) {
		ctx := requestcontext.WithIdentity(context.Background(), created.ID, created.Email, created.Role)
		_, err := svc.List(ctx)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		all, err := svc.List(adminCtx())
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
