package lifecycle

import (
	"time"

	"github.com/kindred-app/kindred-backend/internal/domain"
)

// EventType tags a lifecycle transition for the notification emitter.
type EventType string

const (
	EventStatusChange EventType = "status_change"
	EventLoveMatch    EventType = "love_match"
	EventSecondChance EventType = "second_chance"
	EventMatchRemoved EventType = "match_removed"
)

// Outcome describes what a transition did. Mutated=false means the call was
// an idempotent repeat: the record is returned unchanged and nothing is
// persisted or emitted.
type Outcome struct {
	Mutated             bool
	Event               EventType
	IsLoveMatch         bool
	SecondChanceOffered bool
	IsDeleted           bool
}

// Each transition is a pure function over the in-memory record: it verifies
// preconditions, mutates the record, and reports the outcome. The engine
// applies the result inside a single conditional update, so two concurrent
// actors can never interleave half-applied transitions.

func touch(rec *domain.MatchRecord, userID string, now time.Time) {
	rec.TotalInteractions++
	rec.LastActionBy = userID
	rec.LastActionAt = &now
}

func unlockLove(rec *domain.MatchRecord, now time.Time) {
	rec.Status = domain.MatchStatusLove
	rec.ChatUnlocked = true
	rec.LoveAt = &now
	rec.NotificationPendingUser1 = true
	rec.NotificationPendingUser2 = true
}

func closeRecord(rec *domain.MatchRecord, reason string, now time.Time) {
	rec.Status = domain.MatchStatusRejected
	rec.ChatUnlocked = false
	rec.VisibleToUser1 = false
	rec.VisibleToUser2 = false
	rec.DeletedReason = reason
	rec.DeletedAt = &now
}

// requireSide resolves the caller to side 1 or 2 and enforces visibility:
// a record hidden from the caller is reported as missing, exactly like
// getMatchDetails does.
func requireSide(rec *domain.MatchRecord, userID string) (int, error) {
	side := rec.SideOf(userID)
	if side == 0 {
		return 0, domain.ErrForbidden
	}
	if !rec.VisibleTo(side) {
		return 0, domain.ErrMatchNotFound
	}
	return side, nil
}

// ExpressInterest: side 1 of a one-way record reveals it to side 2.
func ExpressInterest(rec *domain.MatchRecord, userID string, now time.Time) (*Outcome, error) {
	if rec.SideOf(userID) == 0 {
		return nil, domain.ErrForbidden
	}
	if rec.Type != domain.MatchTypeOneWay {
		return nil, domain.ErrInvalidMatchType
	}
	if rec.SideOf(userID) != 1 {
		return nil, domain.ErrForbidden
	}
	if rec.User1ExpressedInterest {
		return nil, domain.ErrAlreadyExpressed
	}
	if rec.Status != domain.MatchStatusPending {
		return nil, domain.ErrMatchClosed
	}

	rec.User1ExpressedInterest = true
	rec.InterestExpressedAt = &now
	rec.VisibleToUser2 = true
	rec.NotificationPendingUser2 = true
	touch(rec, userID, now)

	return &Outcome{Mutated: true, Event: EventStatusChange}, nil
}

// AcceptInterest: side 2 of a one-way record accepts expressed interest,
// which unlocks love immediately.
func AcceptInterest(rec *domain.MatchRecord, userID string, now time.Time) (*Outcome, error) {
	if rec.SideOf(userID) == 0 {
		return nil, domain.ErrForbidden
	}
	if rec.Type != domain.MatchTypeOneWay {
		return nil, domain.ErrInvalidMatchType
	}
	if rec.SideOf(userID) != 2 {
		return nil, domain.ErrForbidden
	}
	if !rec.User1ExpressedInterest {
		return nil, domain.ErrNoInterestToAccept
	}
	if rec.Status == domain.MatchStatusLove {
		return &Outcome{IsLoveMatch: true}, nil
	}
	if rec.Status != domain.MatchStatusPending {
		return nil, domain.ErrMatchClosed
	}

	rec.Action2 = domain.ActionLike
	unlockLove(rec, now)
	touch(rec, userID, now)

	return &Outcome{Mutated: true, Event: EventLoveMatch, IsLoveMatch: true}, nil
}

// Like handles both the normal round action and a second-chance response on
// mutual records. One-way records resolve through expressInterest /
// acceptInterest instead.
func Like(rec *domain.MatchRecord, userID string, isSecondChance bool, now time.Time) (*Outcome, error) {
	side, err := requireSide(rec, userID)
	if err != nil {
		return nil, err
	}
	if rec.Type != domain.MatchTypeMutual {
		return nil, domain.ErrInvalidMatchType
	}

	if isSecondChance {
		if !rec.SecondChanceOffered(side) {
			return nil, domain.ErrNoSecondChance
		}
		if rec.SecondChanceResponseOf(side) != domain.SecondChanceNone {
			return nil, domain.ErrMatchClosed
		}
		// A second-chance acceptance always produces love, regardless of
		// what the other side originally did.
		rec.SetSecondChanceResponse(side, domain.SecondChanceLike)
		rec.SetAction(side, domain.ActionLike)
		unlockLove(rec, now)
		touch(rec, userID, now)
		return &Outcome{Mutated: true, Event: EventLoveMatch, IsLoveMatch: true}, nil
	}

	if rec.Status != domain.MatchStatusPending {
		return nil, domain.ErrMatchClosed
	}

	switch rec.ActionOf(side) {
	case domain.ActionLike:
		// Idempotent repeat.
		return &Outcome{SecondChanceOffered: rec.SecondChanceOffered(other(side))}, nil
	case domain.ActionPass:
		return nil, domain.ErrActionAlreadySet
	}

	rec.SetAction(side, domain.ActionLike)
	touch(rec, userID, now)

	switch rec.ActionOf(other(side)) {
	case domain.ActionLike:
		unlockLove(rec, now)
		return &Outcome{Mutated: true, Event: EventLoveMatch, IsLoveMatch: true}, nil
	case domain.ActionPass:
		// The other side passed earlier: give them one chance to reconsider.
		rec.SetSecondChanceOffered(other(side), true)
		rec.SetNotificationPending(other(side), true)
		return &Outcome{Mutated: true, Event: EventSecondChance, SecondChanceOffered: true}, nil
	default:
		rec.SetNotificationPending(other(side), true)
		return &Outcome{Mutated: true, Event: EventStatusChange}, nil
	}
}

// Pass records a negative decision. On one-way records it closes the record;
// on mutual records it may terminate, offer the caller a second chance, or
// leave the record single-sided.
func Pass(rec *domain.MatchRecord, userID string, isSecondChance bool, now time.Time) (*Outcome, error) {
	side, err := requireSide(rec, userID)
	if err != nil {
		return nil, err
	}

	if rec.Type == domain.MatchTypeOneWay {
		return passOneWay(rec, userID, side, now)
	}

	if isSecondChance {
		if !rec.SecondChanceOffered(side) {
			return nil, domain.ErrNoSecondChance
		}
		if rec.SecondChanceResponseOf(side) != domain.SecondChanceNone {
			return nil, domain.ErrMatchClosed
		}
		rec.SetSecondChanceResponse(side, domain.SecondChanceStillPass)
		rec.SetAction(side, domain.ActionPass)
		closeRecord(rec, domain.DeletedReasonSecondChanceRejected, now)
		touch(rec, userID, now)
		return &Outcome{Mutated: true, Event: EventMatchRemoved, IsDeleted: true}, nil
	}

	if rec.ActionOf(side) == domain.ActionPass {
		// Idempotent repeat: report the current state without touching the
		// other side's second-chance bookkeeping.
		return &Outcome{
			IsDeleted:           rec.Status == domain.MatchStatusRejected,
			SecondChanceOffered: rec.SecondChanceOffered(side),
		}, nil
	}
	if rec.ActionOf(side) == domain.ActionLike {
		return nil, domain.ErrActionAlreadySet
	}
	if rec.Status != domain.MatchStatusPending {
		return nil, domain.ErrMatchClosed
	}

	rec.SetAction(side, domain.ActionPass)
	touch(rec, userID, now)

	switch rec.ActionOf(other(side)) {
	case domain.ActionPass:
		closeRecord(rec, domain.DeletedReasonBothPassed, now)
		return &Outcome{Mutated: true, Event: EventMatchRemoved, IsDeleted: true}, nil
	case domain.ActionLike:
		// The other side wants this: the caller gets one chance to
		// reconsider before the record resolves.
		rec.SetSecondChanceOffered(side, true)
		rec.SetNotificationPending(side, true)
		return &Outcome{Mutated: true, Event: EventSecondChance, SecondChanceOffered: true}, nil
	default:
		// A lone pass stays invisible to the other side.
		return &Outcome{Mutated: true, Event: EventStatusChange}, nil
	}
}

func passOneWay(rec *domain.MatchRecord, userID string, side int, now time.Time) (*Outcome, error) {
	if rec.Status == domain.MatchStatusRejected {
		return &Outcome{IsDeleted: true}, nil
	}
	if rec.Status != domain.MatchStatusPending {
		return nil, domain.ErrMatchClosed
	}

	reason := domain.DeletedReasonNotInterested
	if side == 2 {
		// Side 2 can only act once interest was expressed; requireSide has
		// already enforced visibility.
		reason = domain.DeletedReasonInterestDeclined
	}

	rec.SetAction(side, domain.ActionPass)
	closeRecord(rec, reason, now)
	touch(rec, userID, now)
	return &Outcome{Mutated: true, Event: EventMatchRemoved, IsDeleted: true}, nil
}

func other(side int) int {
	if side == 1 {
		return 2
	}
	return 1
}
