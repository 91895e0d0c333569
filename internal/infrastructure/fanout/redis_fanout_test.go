package fanout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindred-app/kindred-backend/internal/usecase/notify"
)

func setup(t *testing.T) (*RedisFanout, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisFanout(client), mr
}

func event(matchID string) *notify.MatchEvent {
	return &notify.MatchEvent{
		MatchID:     matchID,
		Event:       "love_match",
		MatchType:   "mutual_algorithm",
		Status:      "love",
		OtherUserID: "u2",
		OccurredAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteStoresAndPublishes(t *testing.T) {
	f, mr := setup(t)

	require.NoError(t, f.Write(context.Background(), "u1", event("m1")))

	assert.True(t, mr.Exists("fanout:user:u1:match:m1"))
}

func TestPendingReturnsStoredEvents(t *testing.T) {
	f, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, "u1", event("m1")))
	require.NoError(t, f.Write(ctx, "u1", event("m2")))
	require.NoError(t, f.Write(ctx, "other", event("m3")))

	events, err := f.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "love_match", ev.Event)
		assert.NotEqual(t, "m3", ev.MatchID)
	}
}

func TestRetractRemovesStoredCopies(t *testing.T) {
	f, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, "u1", event("m1")))
	require.NoError(t, f.Write(ctx, "u2", event("m1")))

	require.NoError(t, f.Retract(ctx, "m1", []string{"u1", "u2"}))

	assert.False(t, mr.Exists("fanout:user:u1:match:m1"))
	assert.False(t, mr.Exists("fanout:user:u2:match:m1"))

	events, err := f.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRetractWithNoRecipientsIsANoop(t *testing.T) {
	f, _ := setup(t)
	assert.NoError(t, f.Retract(context.Background(), "m1", nil))
}
