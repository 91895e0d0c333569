package matching

import (
	"math"
	"strings"

	"github.com/kindred-app/kindred-backend/internal/domain"
)

// Proposal is one side's scored suggestion produced during a batch sweep.
// Two proposals with the same PairKey collapse into a mutual record; a lone
// one becomes a one-way record.
type Proposal struct {
	ActorID     string
	CandidateID string
	Score       int
	Algorithm   string
	Reason      string
}

func (p Proposal) PairKey() string {
	return domain.PairKey(p.ActorID, p.CandidateID)
}

// Evaluate runs the acting user's chosen strategy, then the two universal
// post-adjustments: same-city multiplier first, age-proximity bonus second,
// each capped at 100. The final score is rounded to the nearest integer.
func Evaluate(actor, candidate *domain.User) Proposal {
	strategy := StrategyFor(actor)
	score, reason := strategy.Score(actor, candidate)

	if sameCity(actor, candidate) {
		score = math.Min(100, score*1.3)
		reason += ", and you're in the same city"
	}
	score = math.Min(100, score+ageBonus(actor.Age, candidate.Age))

	return Proposal{
		ActorID:     actor.ID,
		CandidateID: candidate.ID,
		Score:       int(math.Round(score)),
		Algorithm:   strategy.Name(),
		Reason:      reason,
	}
}

func sameCity(a, b *domain.User) bool {
	ca, cb := strings.TrimSpace(a.City), strings.TrimSpace(b.City)
	return ca != "" && strings.EqualFold(ca, cb)
}

func ageBonus(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return 10
	case diff <= 5:
		return 5
	case diff <= 10:
		return 2
	default:
		return 0
	}
}
