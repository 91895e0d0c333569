package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/logger"
	"github.com/kindred-app/kindred-backend/internal/usecase/lifecycle"
)

// FanoutWriter delivers per-user event payloads to whatever transport backs
// notifications (Redis pub/sub in production, a fake in tests).
type FanoutWriter interface {
	Write(ctx context.Context, userID string, event *MatchEvent) error
	// Retract removes an event previously written for both participants of a
	// match, if the transport still holds it.
	Retract(ctx context.Context, matchID string, userIDs []string) error
}

// MatchEvent is the privacy-safe projection sent to one recipient. It never
// carries the other side's action, score, or the existence of a record the
// recipient cannot see.
type MatchEvent struct {
	MatchID      string    `json:"match_id"`
	Event        string    `json:"event"`
	MatchType    string    `json:"match_type"`
	Status       string    `json:"status"`
	ChatUnlocked bool      `json:"chat_unlocked"`
	OtherUserID  string    `json:"other_user_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Emitter turns lifecycle outcomes into per-recipient events. Writes happen
// on a goroutine so the request path never waits on the transport.
type Emitter struct {
	writer          FanoutWriter
	retractionGrace time.Duration
	log             *slog.Logger
	now             func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	// lookup re-reads the record when a retraction timer fires.
	lookup func(ctx context.Context, matchID string) (*domain.MatchRecord, error)

	wg sync.WaitGroup
}

func NewEmitter(writer FanoutWriter, retractionGrace time.Duration,
	lookup func(ctx context.Context, matchID string) (*domain.MatchRecord, error)) *Emitter {
	return &Emitter{
		writer:          writer,
		retractionGrace: retractionGrace,
		log:             logger.With("component", "notify"),
		now:             time.Now,
		timers:          make(map[string]*time.Timer),
		lookup:          lookup,
	}
}

// Emit fans one lifecycle event out to the recipients whose side may see it.
// Failures only log: notification delivery never fails a user action.
func (e *Emitter) Emit(ctx context.Context, rec *domain.MatchRecord, event lifecycle.EventType) {
	recipients := e.recipientsFor(rec, event)
	if len(recipients) == 0 {
		return
	}

	snapshot := *rec
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		for _, userID := range recipients {
			ev := e.eventFor(&snapshot, userID, event)
			if err := e.writer.Write(wctx, userID, ev); err != nil {
				e.log.Warn("notification write failed",
					"match_id", snapshot.ID, "user_id", userID, "error", err)
			}
		}
	}()
}

// recipientsFor decides who may learn about this event. Removal events only
// reach sides that could already see the record going in; pending-flag
// bookkeeping on the record itself drives the rest.
func (e *Emitter) recipientsFor(rec *domain.MatchRecord, event lifecycle.EventType) []string {
	var out []string
	switch event {
	case lifecycle.EventLoveMatch:
		out = []string{rec.User1ID, rec.User2ID}
	case lifecycle.EventMatchRemoved:
		// Closing wipes the visibility flags before we run, so decide from
		// what the non-acting side could see beforehand: side 1 always saw
		// its own record, side 2 only once interest was expressed.
		if other, ok := rec.OtherUserID(rec.LastActionBy); ok {
			side := rec.SideOf(other)
			if rec.Type == domain.MatchTypeMutual || side == 1 || rec.User1ExpressedInterest {
				out = []string{other}
			}
		}
	default:
		if rec.NotificationPendingUser1 {
			out = append(out, rec.User1ID)
		}
		if rec.NotificationPendingUser2 {
			out = append(out, rec.User2ID)
		}
	}
	return out
}

func (e *Emitter) eventFor(rec *domain.MatchRecord, userID string, event lifecycle.EventType) *MatchEvent {
	other, _ := rec.OtherUserID(userID)
	return &MatchEvent{
		MatchID:      rec.ID,
		Event:        string(event),
		MatchType:    string(rec.Type),
		Status:       string(rec.Status),
		ChatUnlocked: rec.ChatUnlocked,
		OtherUserID:  other,
		OccurredAt:   e.now(),
	}
}

// ScheduleRetraction arms a one-shot timer that pulls the pair's stored
// fan-out entries once the grace window elapses. The record is re-read
// first: a record that reached love in the meantime keeps its entries, so a
// retraction armed by a losing concurrent writer never erases a live match.
func (e *Emitter) ScheduleRetraction(rec *domain.MatchRecord) {
	if e.retractionGrace <= 0 || e.lookup == nil {
		return
	}
	matchID := rec.ID
	user1, user2 := rec.User1ID, rec.User2ID

	e.mu.Lock()
	if t, ok := e.timers[matchID]; ok {
		t.Stop()
	}
	e.timers[matchID] = time.AfterFunc(e.retractionGrace, func() {
		e.mu.Lock()
		delete(e.timers, matchID)
		e.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fresh, err := e.lookup(ctx, matchID)
		if err != nil {
			e.log.Warn("retraction check failed", "match_id", matchID, "error", err)
			return
		}
		if fresh.Status == domain.MatchStatusLove {
			return
		}
		if err := e.writer.Retract(ctx, matchID, []string{user1, user2}); err != nil {
			e.log.Warn("retraction failed", "match_id", matchID, "error", err)
			return
		}
		e.log.Info("love notification retracted", "match_id", matchID)
	})
	e.mu.Unlock()
}

// Close waits for in-flight emits and stops pending retraction timers.
func (e *Emitter) Close() {
	e.mu.Lock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.mu.Unlock()
	e.wg.Wait()
}
