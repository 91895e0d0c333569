package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/logger"
	"github.com/kindred-app/kindred-backend/internal/repository"
)

// Notifier receives lifecycle events after a transition has been persisted.
// Emit must never block the request path for long; implementations fan out
// asynchronously.
type Notifier interface {
	Emit(ctx context.Context, rec *domain.MatchRecord, event EventType)
	// ScheduleRetraction arms the short grace window after which the pair's
	// stored fan-out entries are withdrawn. Armed on every removal so a
	// terminally closed record leaves nothing behind.
	ScheduleRetraction(rec *domain.MatchRecord)
}

// Enricher decorates a fresh love match with generated conversation material.
// Called fire-and-forget; failures only log.
type Enricher interface {
	EnrichLoveMatch(ctx context.Context, rec *domain.MatchRecord)
}

// casAttempts bounds the re-read loop when two actors race on one record.
const casAttempts = 3

// Engine orchestrates every post-creation mutation of a match record:
// read, apply a pure transition, persist with a version check, emit.
type Engine struct {
	matches  repository.MatchRepository
	notifier Notifier
	enricher Enricher
	log      *slog.Logger
	now      func() time.Time
}

func NewEngine(matches repository.MatchRepository, notifier Notifier, enricher Enricher) *Engine {
	return &Engine{
		matches:  matches,
		notifier: notifier,
		enricher: enricher,
		log:      logger.With("component", "lifecycle"),
		now:      time.Now,
	}
}

type LikeResult struct {
	Record              *domain.MatchRecord `json:"match"`
	IsLoveMatch         bool                `json:"is_love_match"`
	SecondChanceOffered bool                `json:"second_chance_offered"`
}

type PassResult struct {
	Record              *domain.MatchRecord `json:"match"`
	IsDeleted           bool                `json:"is_deleted"`
	SecondChanceOffered bool                `json:"second_chance_offered"`
}

// MatchDetails is the single-record view returned to a participant, annotated
// with which side they are.
type MatchDetails struct {
	Record *domain.MatchRecord `json:"match"`
	Side   string              `json:"your_side"`
}

// transition is the shape shared by all pure transition functions.
type transition func(rec *domain.MatchRecord, now time.Time) (*Outcome, error)

// apply runs the read / transition / conditional-update loop. On a version
// conflict it re-reads and replays the transition against the fresh record,
// so a losing racer sees the winner's state instead of a spurious failure.
func (e *Engine) apply(ctx context.Context, matchID string, fn transition) (*domain.MatchRecord, *Outcome, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		rec, err := e.matches.GetByID(ctx, matchID)
		if err != nil {
			return nil, nil, err
		}

		out, err := fn(rec, e.now())
		if err != nil {
			return nil, nil, err
		}
		if !out.Mutated {
			return rec, out, nil
		}

		err = e.matches.UpdateConditional(ctx, rec, rec.Version)
		if err == nil {
			e.afterCommit(ctx, rec, out)
			return rec, out, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, nil, err
		}
		lastErr = err
		e.log.Debug("version conflict, retrying", "match_id", matchID, "attempt", attempt+1)
	}
	return nil, nil, lastErr
}

func (e *Engine) afterCommit(ctx context.Context, rec *domain.MatchRecord, out *Outcome) {
	if e.notifier != nil {
		e.notifier.Emit(ctx, rec, out.Event)
		if out.Event == EventMatchRemoved {
			e.notifier.ScheduleRetraction(rec)
		}
	}
	if out.IsLoveMatch && e.enricher != nil {
		e.enricher.EnrichLoveMatch(ctx, rec)
	}
}

// ExpressInterest reveals a one-way record to the other side.
func (e *Engine) ExpressInterest(ctx context.Context, matchID, userID string) (*domain.MatchRecord, error) {
	rec, _, err := e.apply(ctx, matchID, func(r *domain.MatchRecord, now time.Time) (*Outcome, error) {
		return ExpressInterest(r, userID, now)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("interest expressed", "match_id", matchID, "user_id", userID)
	return rec, nil
}

// AcceptInterest turns expressed interest into a love match.
func (e *Engine) AcceptInterest(ctx context.Context, matchID, userID string) (*LikeResult, error) {
	rec, out, err := e.apply(ctx, matchID, func(r *domain.MatchRecord, now time.Time) (*Outcome, error) {
		return AcceptInterest(r, userID, now)
	})
	if err != nil {
		return nil, err
	}
	if out.Mutated {
		e.log.Info("interest accepted", "match_id", matchID, "user_id", userID)
	}
	return &LikeResult{Record: rec, IsLoveMatch: out.IsLoveMatch}, nil
}

// Like records a positive decision on a mutual record.
func (e *Engine) Like(ctx context.Context, matchID, userID string, isSecondChance bool) (*LikeResult, error) {
	rec, out, err := e.apply(ctx, matchID, func(r *domain.MatchRecord, now time.Time) (*Outcome, error) {
		return Like(r, userID, isSecondChance, now)
	})
	if err != nil {
		return nil, err
	}
	if out.IsLoveMatch && out.Mutated {
		e.log.Info("love match", "match_id", matchID)
	}
	return &LikeResult{
		Record:              rec,
		IsLoveMatch:         out.IsLoveMatch,
		SecondChanceOffered: out.SecondChanceOffered,
	}, nil
}

// Pass records a negative decision.
func (e *Engine) Pass(ctx context.Context, matchID, userID string, isSecondChance bool) (*PassResult, error) {
	rec, out, err := e.apply(ctx, matchID, func(r *domain.MatchRecord, now time.Time) (*Outcome, error) {
		return Pass(r, userID, isSecondChance, now)
	})
	if err != nil {
		return nil, err
	}
	if out.IsDeleted && out.Mutated {
		e.log.Info("match closed", "match_id", matchID, "reason", rec.DeletedReason)
	}
	return &PassResult{
		Record:              rec,
		IsDeleted:           out.IsDeleted,
		SecondChanceOffered: out.SecondChanceOffered,
	}, nil
}

// GetMatchDetails returns one record to a participant. Non-participants get
// forbidden; participants whose side lost visibility get not-found, so a
// closed record and a missing one are indistinguishable from outside.
func (e *Engine) GetMatchDetails(ctx context.Context, matchID, userID string) (*MatchDetails, error) {
	rec, err := e.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	side := rec.SideOf(userID)
	if side == 0 {
		return nil, domain.ErrForbidden
	}
	if !rec.VisibleTo(side) {
		return nil, domain.ErrMatchNotFound
	}
	return &MatchDetails{Record: rec, Side: domain.SideLabel(side)}, nil
}

// ListMatches returns every record currently visible to the user, newest
// first.
func (e *Engine) ListMatches(ctx context.Context, userID string) ([]*domain.MatchRecord, error) {
	return e.matches.GetVisibleByUser(ctx, userID)
}
