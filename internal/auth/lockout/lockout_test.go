package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockoutService(t *testing.T) {
	ctx := context.Background()

	t.Run("allows attempts under the threshold", func(t *testing.T) {
		svc := NewService(NewInMemoryStore(), 5, 15*time.Minute)

		for range 4 {
			locked, err := svc.RecordFailure(ctx, "a@example.com", "10.0.0.1")
			require.NoError(t, err)
			assert.False(t, locked)
		}
		assert.NoError(t, svc.Check(ctx, "a@example.com", "10.0.0.1"))
	})

	t.Run("locks out on the threshold attempt", func(t *testing.T) {
		svc := NewService(NewInMemoryStore(), 5, 15*time.Minute)

		var lockedOut bool
		for range 5 {
			locked, err := svc.RecordFailure(ctx, "a@example.com", "10.0.0.1")
			require.NoError(t, err)
			lockedOut = locked
		}
		assert.True(t, lockedOut, "the fifth failure should report lockout")
		assert.ErrorIs(t, svc.Check(ctx, "a@example.com", "10.0.0.1"), ErrLockedOut)
	})

	t.Run("pairs are independent", func(t *testing.T) {
		svc := NewService(NewInMemoryStore(), 2, 15*time.Minute)

		for range 2 {
			_, err := svc.RecordFailure(ctx, "a@example.com", "10.0.0.1")
			require.NoError(t, err)
		}
		require.ErrorIs(t, svc.Check(ctx, "a@example.com", "10.0.0.1"), ErrLockedOut)

		assert.NoError(t, svc.Check(ctx, "a@example.com", "10.0.0.2"), "different IP")
		assert.NoError(t, svc.Check(ctx, "b@example.com", "10.0.0.1"), "different email")
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		svc := NewService(NewInMemoryStore(), 2, 15*time.Minute)

		for range 2 {
			_, err := svc.RecordFailure(ctx, "a@example.com", "10.0.0.1")
			require.NoError(t, err)
		}
		require.NoError(t, svc.Reset(ctx, "a@example.com", "10.0.0.1"))
		assert.NoError(t, svc.Check(ctx, "a@example.com", "10.0.0.1"))
	})

	t.Run("window expiry unlocks the pair", func(t *testing.T) {
		current := time.Now()
		store := NewInMemoryStore().WithClock(func() time.Time { return current })
		svc := NewService(store, 2, 15*time.Minute)

		for range 2 {
			_, err := svc.RecordFailure(ctx, "a@example.com", "10.0.0.1")
			require.NoError(t, err)
		}
		require.ErrorIs(t, svc.Check(ctx, "a@example.com", "10.0.0.1"), ErrLockedOut)

		current = current.Add(16 * time.Minute)
		assert.NoError(t, svc.Check(ctx, "a@example.com", "10.0.0.1"))
	})
}
