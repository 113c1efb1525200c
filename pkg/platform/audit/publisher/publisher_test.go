package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "felicity/pkg/domain"
	audit "felicity/pkg/platform/audit"
	"felicity/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	identityID := id.IdentityID(uuid.New())
	event := audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionIdentityCreated,
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := store.ListByIdentity(context.Background(), identityID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionIdentityCreated, events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_DerivesSecurityCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionAuthFailed})
	require.NoError(t, err)

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	identityID := id.IdentityID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionRegistrationCreated,
	})
	require.NoError(t, err)

	// Wait for async processing
	assert.Eventually(t, func() bool {
		events, err := store.ListByIdentity(context.Background(), identityID)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	identityID := id.IdentityID(uuid.New())
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			IdentityID: identityID,
			Action:     audit.ActionIdentityCreated,
		})
		require.NoError(t, err)
	}

	// Close should drain all buffered events.
	pub.Close()

	events, err := store.ListByIdentity(context.Background(), identityID)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}
