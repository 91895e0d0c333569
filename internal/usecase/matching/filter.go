package matching

import (
	"strings"

	"github.com/kindred-app/kindred-backend/internal/domain"
)

// NormalizeGender folds the free-form gender / seeking vocabulary coming from
// profiles ("Men", "Woman", "Everyone", "Both", ...) into the canonical set.
func NormalizeGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "man", "men", "m":
		return domain.GenderMale
	case "female", "woman", "women", "f":
		return domain.GenderFemale
	case "non-binary", "nonbinary", "non binary", "enby", "nb":
		return domain.GenderNonBinary
	case "everyone", "both", "all", "any", "anyone":
		return domain.SeekEveryone
	case "":
		return ""
	default:
		return domain.GenderOther
	}
}

// NormalizeGoal folds relationship-goal values into friendship/dating/both.
// Unknown values are treated as "both" so a sloppy profile never empties a
// user's candidate pool.
func NormalizeGoal(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "friendship", "friends", "friend":
		return domain.GoalFriendship
	case "dating", "date", "relationship":
		return domain.GoalDating
	default:
		return domain.GoalBoth
	}
}

// seekingAccepts reports whether one side's seeking preference accepts the
// other's gender.
func seekingAccepts(seeking, gender string) bool {
	s := NormalizeGender(seeking)
	return s == domain.SeekEveryone || s == NormalizeGender(gender)
}

// SeekingCompatible requires acceptance in both directions: each side's
// preference must be everyone or equal the other's gender.
func SeekingCompatible(a, b *domain.User) bool {
	return seekingAccepts(a.Seeking, b.Gender) && seekingAccepts(b.Seeking, a.Gender)
}

// GoalCompatible: "both" matches anything, otherwise goals must be equal.
func GoalCompatible(a, b *domain.User) bool {
	ga, gb := NormalizeGoal(a.RelationshipGoal), NormalizeGoal(b.RelationshipGoal)
	if ga == domain.GoalBoth || gb == domain.GoalBoth {
		return true
	}
	return ga == gb
}

// EligibleCandidates applies the compatibility filter for one user against
// the active pool: drop self, drop anyone already on either side of any
// historical record (any lifetime status), then require mutual seeking and
// relationship-goal compatibility.
func EligibleCandidates(user *domain.User, pool []*domain.User, history []*domain.MatchRecord) []*domain.User {
	paired := make(map[string]struct{}, len(history)*2)
	for _, m := range history {
		paired[m.User1ID] = struct{}{}
		paired[m.User2ID] = struct{}{}
	}

	var candidates []*domain.User
	for _, cand := range pool {
		if cand.ID == user.ID {
			continue
		}
		if _, ok := paired[cand.ID]; ok {
			continue
		}
		if !SeekingCompatible(user, cand) {
			continue
		}
		if !GoalCompatible(user, cand) {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates
}
