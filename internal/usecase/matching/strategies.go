package matching

import (
	"math"

	"github.com/kindred-app/kindred-backend/internal/domain"
)

// Strategy scores one candidate from the acting user's point of view and
// explains itself with a short human-readable reason. Base scores are
// clamped to [0,100]; the universal locality/age bonuses are applied on top
// by Evaluate.
type Strategy interface {
	Name() string
	Score(actor, candidate *domain.User) (float64, string)
}

// StrategyFor dispatches on the acting user's stored preference flag.
// Similarity is the default when no flag (or an inconsistent set) is stored.
func StrategyFor(u *domain.User) Strategy {
	switch {
	case u.UseComplementary:
		return complementaryStrategy{}
	case u.UseMultiDimensional:
		return multiDimensionalStrategy{}
	case u.UseDealBreaker:
		return dealBreakerStrategy{}
	default:
		return similarityStrategy{}
	}
}

func clampScore(s float64) float64 {
	return math.Min(100, math.Max(0, s))
}

//
// Similarity: rewards personality vectors that mirror each other.
//

type similarityStrategy struct{}

func (similarityStrategy) Name() string { return domain.AlgorithmSimilarity }

func (similarityStrategy) Score(actor, candidate *domain.User) (float64, string) {
	score := 50.0
	reason := "looks like a promising match"

	if actor.Traits != nil && candidate.Traits != nil {
		a, b := actor.Traits.Values(), candidate.Traits.Values()
		var totalDiff float64
		for i := range a {
			totalDiff += math.Abs(a[i] - b[i])
		}
		meanDiff := totalDiff / float64(len(a))
		score = 100 - 2*meanDiff
		reason = "your personalities closely mirror each other"
	}

	if actor.RelationshipStatus != "" && actor.RelationshipStatus == candidate.RelationshipStatus {
		score += 5
	}

	return clampScore(score), reason
}

//
// Complementary: rewards trait pairs whose average sits near the middle, plus
// explicit opposite-polarity bonuses on extraversion and neuroticism.
//

type complementaryStrategy struct{}

func (complementaryStrategy) Name() string { return domain.AlgorithmComplementary }

func (complementaryStrategy) Score(actor, candidate *domain.User) (float64, string) {
	score := 50.0
	reason := "your differences could balance each other"

	if actor.Traits != nil && candidate.Traits != nil {
		a, b := actor.Traits.Values(), candidate.Traits.Values()
		var total float64
		for i := range a {
			avg := (a[i] + b[i]) / 2
			total += 100 - 2*math.Abs(avg-50)
		}
		score = total / float64(len(a))

		if oppositePolarity(actor.Traits.Extraversion, candidate.Traits.Extraversion) {
			score += 10
		}
		if oppositePolarity(actor.Traits.Neuroticism, candidate.Traits.Neuroticism) {
			score += 10
		}
		reason = "your personalities complement each other"
	}

	return clampScore(score), reason
}

// oppositePolarity holds when the two values sit on opposite sides of the
// 30/70 band.
func oppositePolarity(a, b float64) bool {
	return (a < 30 && b > 70) || (a > 70 && b < 30)
}

//
// Multi-dimensional: blends similarity and complementary, then rewards
// matching attachment styles and articulated communication styles.
//

type multiDimensionalStrategy struct{}

func (multiDimensionalStrategy) Name() string { return domain.AlgorithmMultiDimensional }

func (multiDimensionalStrategy) Score(actor, candidate *domain.User) (float64, string) {
	sim, _ := similarityStrategy{}.Score(actor, candidate)
	comp, _ := complementaryStrategy{}.Score(actor, candidate)
	score := (sim + comp) / 2

	if actor.AttachmentStyle != "" && actor.AttachmentStyle == candidate.AttachmentStyle {
		score += 10
	}
	if actor.CommunicationStyle != "" && candidate.CommunicationStyle != "" {
		score += 5
	}

	return clampScore(score), "strong across several compatibility dimensions"
}

//
// Deal-breaker: coarse placeholder matcher. It only checks the acting user's
// own lists against two fixed terms rather than the candidate's actual
// attributes; kept as-is pending real requirements.
//

type dealBreakerStrategy struct{}

var placeholderDealBreakers = [2]string{"smoking", "different religion"}

func (dealBreakerStrategy) Name() string { return domain.AlgorithmDealBreaker }

func (dealBreakerStrategy) Score(actor, candidate *domain.User) (float64, string) {
	score := 70.0

	for _, db := range actor.DealBreakers {
		if db == placeholderDealBreakers[0] || db == placeholderDealBreakers[1] {
			score += 10
			break
		}
	}
	if len(actor.MustHaves) > 0 {
		score += 10
	}

	return clampScore(score), "clears your stated requirements"
}
