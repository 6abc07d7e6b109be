package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTripIsolatesCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_, err := store.Load(ctx, "sid")
	require.ErrorIs(t, err, ErrNotFound)

	state := NewState()
	state.DeveloperName = "Hanako"
	state.Pending = &PendingExchange{Question: "q", Answer: "a", LatencySeconds: 1.5}
	state.SetWidget("name", "Taro")
	require.NoError(t, store.Save(ctx, "sid", state))

	state.DeveloperName = "changed after save"

	loaded, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "Hanako", loaded.DeveloperName)
	assert.Equal(t, "Taro", loaded.Widget("name", "Guest"))
	assert.Equal(t, "Guest", loaded.Widget("missing", "Guest"))
	require.NotNil(t, loaded.Pending)
	assert.InDelta(t, 1.5, loaded.Pending.LatencySeconds, 1e-9)
}

func TestMemoryStore_Expires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), "sid", NewState()))
	now = now.Add(2 * time.Minute)

	_, err := store.Load(context.Background(), "sid")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SweepsAbandonedSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Save(ctx, fmt.Sprintf("anon-%d", i), NewState()))
	}
	require.Equal(t, 1000, len(store.entries))

	now = now.Add(time.Hour)
	require.NoError(t, store.Save(ctx, "fresh", NewState()))
	assert.Equal(t, 1, len(store.entries))

	_, err := store.Load(ctx, "fresh")
	require.NoError(t, err)
}

func TestSession_SaveWritesThrough(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	sess := New("sid", NewState(), store)
	sess.State.Page = PageHistory
	require.NoError(t, sess.Save(context.Background()))

	loaded, err := store.Load(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, PageHistory, loaded.Page)
}

func TestState_TakeFlash(t *testing.T) {
	s := NewState()
	s.Flash = "saved"
	assert.Equal(t, "saved", s.TakeFlash())
	assert.Empty(t, s.TakeFlash())
}

func TestState_SetWidgetOnDecodedState(t *testing.T) {
	s := &State{}
	s.SetWidget("age", "30")
	assert.Equal(t, "30", s.Widget("age", "25"))
}
