package bot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionStore(rdb, ttl), mr
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestSessions(t, 0)

	d := NewDraft(uuid.New())
	d, _, _ = Advance(d, "Rehearsal", time.UTC)
	require.NoError(t, store.Save(ctx, 100, 100, &Session{Flow: FlowEventDraft, Draft: &d}))

	assert.True(t, mr.Exists("session:100:100"))
	assert.Zero(t, mr.TTL("session:100:100"))

	got, err := store.Get(ctx, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, FlowEventDraft, got.Flow)
	require.NotNil(t, got.Draft)
	assert.Equal(t, StepDescription, got.Draft.Step)
	assert.Equal(t, "Rehearsal", got.Draft.Title)
	assert.Equal(t, d.WorkspaceID, got.Draft.WorkspaceID)
}

func TestSessionsAreKeyedPerUserAndChat(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSessions(t, 0)

	require.NoError(t, store.Save(ctx, 100, -1001, &Session{Flow: FlowAwaitingWorkspace}))

	other, err := store.Get(ctx, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, FlowNone, other.Flow)

	other, err = store.Get(ctx, 200, -1001)
	require.NoError(t, err)
	assert.Equal(t, FlowNone, other.Flow)
}

func TestSessionClear(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestSessions(t, 0)

	require.NoError(t, store.Save(ctx, 100, 100, &Session{Flow: FlowAwaitingWorkspace}))
	require.NoError(t, store.Save(ctx, 100, 100, &Session{}))
	assert.False(t, mr.Exists("session:100:100"))

	require.NoError(t, store.Save(ctx, 100, 100, &Session{Flow: FlowAwaitingWorkspace}))
	require.NoError(t, store.Clear(ctx, 100, 100))
	assert.False(t, mr.Exists("session:100:100"))
}

func TestSessionTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestSessions(t, time.Hour)

	require.NoError(t, store.Save(ctx, 100, 100, &Session{Flow: FlowAwaitingWorkspace}))
	assert.Equal(t, time.Hour, mr.TTL("session:100:100"))

	mr.FastForward(2 * time.Hour)
	got, err := store.Get(ctx, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, FlowNone, got.Flow)
}

func TestSessionCorruptPayload(t *testing.T) {
	store, mr := newTestSessions(t, 0)
	require.NoError(t, mr.Set("session:1:1", "{not json"))

	_, err := store.Get(context.Background(), 1, 1)
	assert.Error(t, err)
}
