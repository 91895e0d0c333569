package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kindred-app/kindred-backend/internal/domain"
)

func TestNormalizeGender(t *testing.T) {
	cases := map[string]string{
		"Male":       domain.GenderMale,
		"men":        domain.GenderMale,
		"m":          domain.GenderMale,
		"Woman":      domain.GenderFemale,
		"FEMALE":     domain.GenderFemale,
		"non-binary": domain.GenderNonBinary,
		"Everyone":   domain.SeekEveryone,
		"both":       domain.SeekEveryone,
		"any":        domain.SeekEveryone,
		"":           "",
		"agender":    domain.GenderOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeGender(in), "input %q", in)
	}
}

func TestNormalizeGoalDefaultsToBoth(t *testing.T) {
	assert.Equal(t, domain.GoalFriendship, NormalizeGoal("Friends"))
	assert.Equal(t, domain.GoalDating, NormalizeGoal("relationship"))
	assert.Equal(t, domain.GoalBoth, NormalizeGoal(""))
	assert.Equal(t, domain.GoalBoth, NormalizeGoal("whatever"))
}

func user(id, gender, seeking, goal string) *domain.User {
	return &domain.User{
		ID:               id,
		Gender:           gender,
		Seeking:          seeking,
		RelationshipGoal: goal,
	}
}

func TestSeekingCompatibleRequiresBothDirections(t *testing.T) {
	a := user("a", "male", "female", "dating")
	b := user("b", "female", "male", "dating")
	c := user("c", "female", "female", "dating")

	assert.True(t, SeekingCompatible(a, b))
	assert.False(t, SeekingCompatible(a, c), "c does not seek males")

	// Everyone accepts any gender, but acceptance must still be mutual.
	d := user("d", "non-binary", "everyone", "dating")
	assert.False(t, SeekingCompatible(a, d), "a does not seek non-binary")
	assert.True(t, SeekingCompatible(c, d))
}

func TestGoalCompatible(t *testing.T) {
	assert.True(t, GoalCompatible(
		user("a", "", "", "dating"), user("b", "", "", "dating")))
	assert.False(t, GoalCompatible(
		user("a", "", "", "dating"), user("b", "", "", "friendship")))
	assert.True(t, GoalCompatible(
		user("a", "", "", "both"), user("b", "", "", "friendship")))
}

func TestEligibleCandidates(t *testing.T) {
	me := user("me", "male", "female", "dating")
	ok := user("ok", "female", "male", "dating")
	seen := user("seen", "female", "male", "dating")
	wrongGoal := user("goal", "female", "male", "friendship")
	wrongSeek := user("seek", "female", "female", "dating")

	pool := []*domain.User{me, ok, seen, wrongGoal, wrongSeek}
	history := []*domain.MatchRecord{
		{User1ID: "me", User2ID: "seen", Status: domain.MatchStatusRejected},
	}

	got := EligibleCandidates(me, pool, history)

	assert.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestEligibleCandidatesExcludesAnyHistoricalStatus(t *testing.T) {
	me := user("me", "male", "everyone", "both")
	cand := user("cand", "female", "everyone", "both")

	for _, status := range []domain.MatchStatus{
		domain.MatchStatusPending, domain.MatchStatusLove, domain.MatchStatusRejected,
	} {
		history := []*domain.MatchRecord{{User1ID: "cand", User2ID: "me", Status: status}}
		got := EligibleCandidates(me, []*domain.User{me, cand}, history)
		assert.Empty(t, got, "status %s must still block re-proposal", status)
	}
}
