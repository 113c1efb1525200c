package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "felicity/pkg/domain"
)

func validEvent() *Event {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Event{
		ID:                   id.EventID(uuid.New()),
		Name:                 "Hack1",
		Description:          "24h hackathon",
		Eligibility:          "open to all",
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    2,
		OwnerID:              id.IdentityID(uuid.New()),
	}
}

func TestEventValidate(t *testing.T) {
	t.Run("accepts a well-formed event", func(t *testing.T) {
		require.NoError(t, validEvent().Validate())
	})

	t.Run("rejects end date before start date", func(t *testing.T) {
		event := validEvent()
		event.EndDate = event.StartDate.Add(-time.Hour)
		require.Error(t, event.Validate())
	})

	t.Run("allows end date equal to start date", func(t *testing.T) {
		event := validEvent()
		event.EndDate = event.StartDate
		require.NoError(t, event.Validate())
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		event := validEvent()
		event.RegistrationLimit = 0
		require.Error(t, event.Validate())
	})

	t.Run("rejects negative fee", func(t *testing.T) {
		event := validEvent()
		event.RegistrationFee = -1
		require.Error(t, event.Validate())
	})

	t.Run("rejects blank name", func(t *testing.T) {
		event := validEvent()
		event.Name = "   "
		require.Error(t, event.Validate())
	})
}

func TestDerivedState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("open while capacity and deadline remain", func(t *testing.T) {
		event := validEvent()
		assert.Equal(t, StateOpen, event.StateAt(now))
	})

	t.Run("full when active registrations hit the limit", func(t *testing.T) {
		event := validEvent()
		event.Registrations = []Registration{
			{ParticipantID: id.IdentityID(uuid.New()), Status: StatusRegistered},
			{ParticipantID: id.IdentityID(uuid.New()), Status: StatusAttended},
		}
		assert.Equal(t, StateFull, event.StateAt(now))
	})

	t.Run("cancelled registrations free capacity", func(t *testing.T) {
		event := validEvent()
		event.Registrations = []Registration{
			{ParticipantID: id.IdentityID(uuid.New()), Status: StatusRegistered},
			{ParticipantID: id.IdentityID(uuid.New()), Status: StatusCancelled},
		}
		assert.Equal(t, 1, event.ActiveCount())
		assert.Equal(t, StateOpen, event.StateAt(now))
	})

	t.Run("deadline passed wins over full", func(t *testing.T) {
		event := validEvent()
		event.Registrations = []Registration{
			{ParticipantID: id.IdentityID(uuid.New()), Status: StatusRegistered},
			{ParticipantID: id.IdentityID(uuid.New()), Status: StatusRegistered},
		}
		after := event.RegistrationDeadline.Add(time.Minute)
		assert.Equal(t, StateDeadlinePassed, event.StateAt(after))
	})

	t.Run("the deadline instant itself is still open", func(t *testing.T) {
		event := validEvent()
		assert.Equal(t, StateOpen, event.StateAt(event.RegistrationDeadline))
	})
}

func TestActiveRegistration(t *testing.T) {
	participant := id.IdentityID(uuid.New())
	event := validEvent()
	event.Registrations = []Registration{
		{ID: id.RegistrationID(uuid.New()), ParticipantID: participant, Status: StatusCancelled},
		{ID: id.RegistrationID(uuid.New()), ParticipantID: participant, Status: StatusRegistered},
	}

	found := event.ActiveRegistration(participant)
	require.NotNil(t, found)
	assert.Equal(t, StatusRegistered, found.Status)

	assert.Nil(t, event.ActiveRegistration(id.IdentityID(uuid.New())))
}

func TestPatchApply(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	t.Run("overlays only provided fields", func(t *testing.T) {
		event := validEvent()
		name := "Hack2"
		limit := 10

		require.NoError(t, event.Apply(Patch{Name: &name, RegistrationLimit: &limit}, now))
		assert.Equal(t, "Hack2", event.Name)
		assert.Equal(t, 10, event.RegistrationLimit)
		assert.Equal(t, "24h hackathon", event.Description)
		assert.Equal(t, now, event.UpdatedAt)
	})

	t.Run("revalidates after overlay", func(t *testing.T) {
		event := validEvent()
		limit := 0
		require.Error(t, event.Apply(Patch{RegistrationLimit: &limit}, now))
	})

	t.Run("date ordering is checked across patched and existing fields", func(t *testing.T) {
		event := validEvent()
		end := event.StartDate.Add(-time.Hour)
		require.Error(t, event.Apply(Patch{EndDate: &end}, now))
	})
}
