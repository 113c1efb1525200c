package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeConflict, "event name must be unique")
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeValidation))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
	assert.False(t, HasCode(nil, CodeConflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to create event")

	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to create event")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestIsMatchesCodeAndMessage(t *testing.T) {
	err := New(CodeUnauthorized, "Invalid email or password")
	assert.ErrorIs(t, err, New(CodeUnauthorized, "Invalid email or password"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeForbidden, "Invalid email or password"))
}

func TestIsSeesThroughWrapping(t *testing.T) {
	inner := New(CodeDeadlinePassed, "registration deadline passed")
	outer := fmt.Errorf("register: %w", inner)
	assert.True(t, HasCode(outer, CodeDeadlinePassed))
	assert.ErrorIs(t, outer, New(CodeDeadlinePassed, "registration deadline passed"))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("datastore exploded")))
	assert.Equal(t, CodeCapacityReached, CodeOf(New(CodeCapacityReached, "event is full")))
}
