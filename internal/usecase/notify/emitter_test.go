package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/usecase/lifecycle"
)

type fakeWriter struct {
	mu        sync.Mutex
	writes    map[string][]*MatchEvent
	retracted []string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{writes: make(map[string][]*MatchEvent)}
}

func (w *fakeWriter) Write(_ context.Context, userID string, event *MatchEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes[userID] = append(w.writes[userID], event)
	return nil
}

func (w *fakeWriter) Retract(_ context.Context, matchID string, _ []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.retracted = append(w.retracted, matchID)
	return nil
}

func (w *fakeWriter) eventsFor(userID string) []*MatchEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes[userID]
}

func loveRecord() *domain.MatchRecord {
	return &domain.MatchRecord{
		ID:           "m1",
		User1ID:      "u1",
		User2ID:      "u2",
		Type:         domain.MatchTypeMutual,
		Status:       domain.MatchStatusLove,
		ChatUnlocked: true,
	}
}

func TestEmitLoveMatchReachesBothSides(t *testing.T) {
	writer := newFakeWriter()
	emitter := NewEmitter(writer, 0, nil)

	emitter.Emit(context.Background(), loveRecord(), lifecycle.EventLoveMatch)
	emitter.Close()

	for _, uid := range []string{"u1", "u2"} {
		events := writer.eventsFor(uid)
		require.Len(t, events, 1, "user %s", uid)
		assert.Equal(t, "love_match", events[0].Event)
		assert.Equal(t, "m1", events[0].MatchID)
		assert.True(t, events[0].ChatUnlocked)
	}
}

func TestEmitNeverLeaksTheActorsIdentityFields(t *testing.T) {
	writer := newFakeWriter()
	emitter := NewEmitter(writer, 0, nil)

	rec := loveRecord()
	rec.Score1, rec.Score2 = 80, 90
	emitter.Emit(context.Background(), rec, lifecycle.EventLoveMatch)
	emitter.Close()

	events := writer.eventsFor("u1")
	require.Len(t, events, 1)
	// The projection carries only the other user's id, never scores or
	// per-side actions.
	assert.Equal(t, "u2", events[0].OtherUserID)
}

func TestEmitStatusChangeUsesPendingFlags(t *testing.T) {
	writer := newFakeWriter()
	emitter := NewEmitter(writer, 0, nil)

	rec := &domain.MatchRecord{
		ID: "m1", User1ID: "u1", User2ID: "u2",
		Type:                     domain.MatchTypeMutual,
		Status:                   domain.MatchStatusPending,
		NotificationPendingUser2: true,
	}
	emitter.Emit(context.Background(), rec, lifecycle.EventStatusChange)
	emitter.Close()

	assert.Empty(t, writer.eventsFor("u1"))
	assert.Len(t, writer.eventsFor("u2"), 1)
}

func TestEmitRemovalReachesTheNonActingSide(t *testing.T) {
	writer := newFakeWriter()
	emitter := NewEmitter(writer, 0, nil)

	// u2 declined u1's expressed interest; the close already wiped the
	// visibility flags, but u1 saw the record and must learn it is gone.
	rec := &domain.MatchRecord{
		ID: "m2", User1ID: "u1", User2ID: "u2",
		Type:                   domain.MatchTypeOneWay,
		Status:                 domain.MatchStatusRejected,
		DeletedReason:          domain.DeletedReasonInterestDeclined,
		User1ExpressedInterest: true,
		LastActionBy:           "u2",
	}
	emitter.Emit(context.Background(), rec, lifecycle.EventMatchRemoved)
	emitter.Close()

	events := writer.eventsFor("u1")
	require.Len(t, events, 1)
	assert.Equal(t, "match_removed", events[0].Event)
	assert.Empty(t, writer.eventsFor("u2"))
}

func TestEmitRemovalStaysSilentForTheUnrevealedSide(t *testing.T) {
	writer := newFakeWriter()
	emitter := NewEmitter(writer, 0, nil)

	// u1 dropped a one-way record before expressing interest; u2 never saw
	// it and must not hear about it now.
	rec := &domain.MatchRecord{
		ID: "m2", User1ID: "u1", User2ID: "u2",
		Type:          domain.MatchTypeOneWay,
		Status:        domain.MatchStatusRejected,
		DeletedReason: domain.DeletedReasonNotInterested,
		LastActionBy:  "u1",
	}
	emitter.Emit(context.Background(), rec, lifecycle.EventMatchRemoved)
	emitter.Close()

	assert.Empty(t, writer.eventsFor("u1"))
	assert.Empty(t, writer.eventsFor("u2"))
}

func TestRetractionFiresWhenLoveDidNotSurvive(t *testing.T) {
	writer := newFakeWriter()

	closed := loveRecord()
	closed.Status = domain.MatchStatusRejected
	lookup := func(_ context.Context, _ string) (*domain.MatchRecord, error) {
		return closed, nil
	}

	emitter := NewEmitter(writer, 10*time.Millisecond, lookup)
	emitter.ScheduleRetraction(loveRecord())

	assert.Eventually(t, func() bool {
		writer.mu.Lock()
		defer writer.mu.Unlock()
		return len(writer.retracted) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRetractionSkippedWhileStillInLove(t *testing.T) {
	writer := newFakeWriter()

	lookup := func(_ context.Context, _ string) (*domain.MatchRecord, error) {
		return loveRecord(), nil
	}

	emitter := NewEmitter(writer, 10*time.Millisecond, lookup)
	emitter.ScheduleRetraction(loveRecord())

	time.Sleep(50 * time.Millisecond)
	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.Empty(t, writer.retracted)
}
