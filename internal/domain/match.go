package domain

import (
	"time"
)

type MatchType string

const (
	MatchTypeOneWay MatchType = "one_way_interest"
	MatchTypeMutual MatchType = "mutual_algorithm"
)

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusLove     MatchStatus = "love"
	MatchStatusRejected MatchStatus = "rejected"
)

// Action is a side's recorded decision. The empty string means the side has
// not acted yet this round.
type Action string

const (
	ActionNone Action = ""
	ActionLike Action = "like"
	ActionPass Action = "pass"
)

type SecondChanceResponse string

const (
	SecondChanceNone      SecondChanceResponse = ""
	SecondChanceLike      SecondChanceResponse = "like"
	SecondChanceStillPass SecondChanceResponse = "still_pass"
)

// Reasons stamped into deleted_reason when a record goes terminal.
const (
	DeletedReasonBothPassed           = "both_passed"
	DeletedReasonSecondChanceRejected = "second_chance_rejected"
	DeletedReasonNotInterested        = "not_interested"
	DeletedReasonInterestDeclined     = "interest_declined"
)

// PairKey builds the deterministic sorted join of two user ids. One record
// ever exists per pair key.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// MatchRecord is the central entity: one document per unordered user pair,
// created only by the batch resolver and mutated only by the lifecycle
// engine. Side ordering (user1/user2) is arbitrary but fixed at creation;
// one-way records always carry the proposing user on side 1.
type MatchRecord struct {
	ID      string    `json:"id" db:"id"`
	PairKey string    `json:"pair_key" db:"pair_key"`
	User1ID string    `json:"user1_id" db:"user1_id"`
	User2ID string    `json:"user2_id" db:"user2_id"`
	Type    MatchType `json:"match_type" db:"match_type"`

	Score1     int    `json:"score1" db:"score1"`
	Score2     int    `json:"score2" db:"score2"`
	Algorithm1 string `json:"algorithm1" db:"algorithm1"`
	Algorithm2 string `json:"algorithm2" db:"algorithm2"`
	Reason1    string `json:"reason1" db:"reason1"`
	Reason2    string `json:"reason2" db:"reason2"`
	// CombinedScore is the rounded mean of both sides; mutual records only.
	CombinedScore int `json:"combined_score" db:"combined_score"`

	Action1 Action `json:"action1" db:"action1"`
	Action2 Action `json:"action2" db:"action2"`

	SecondChanceOffered1  bool                 `json:"second_chance_offered1" db:"second_chance_offered1"`
	SecondChanceOffered2  bool                 `json:"second_chance_offered2" db:"second_chance_offered2"`
	SecondChanceResponse1 SecondChanceResponse `json:"second_chance_response1" db:"second_chance_response1"`
	SecondChanceResponse2 SecondChanceResponse `json:"second_chance_response2" db:"second_chance_response2"`

	User1ExpressedInterest  bool `json:"user1_expressed_interest" db:"user1_expressed_interest"`
	User2NotifiedOfInterest bool `json:"user2_notified_of_interest" db:"user2_notified_of_interest"`

	Status       MatchStatus `json:"match_status" db:"match_status"`
	ChatUnlocked bool        `json:"chat_unlocked" db:"chat_unlocked"`

	VisibleToUser1 bool `json:"visible_to_user1" db:"visible_to_user1"`
	VisibleToUser2 bool `json:"visible_to_user2" db:"visible_to_user2"`

	LastActionBy      string     `json:"last_action_by" db:"last_action_by"`
	LastActionAt      *time.Time `json:"last_action_at" db:"last_action_at"`
	TotalInteractions int        `json:"total_interactions" db:"total_interactions"`

	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	InterestExpressedAt *time.Time `json:"interest_expressed_at" db:"interest_expressed_at"`
	LoveAt              *time.Time `json:"love_at" db:"love_at"`
	DeletedAt           *time.Time `json:"deleted_at" db:"deleted_at"`
	DeletedReason       string     `json:"deleted_reason" db:"deleted_reason"`

	NotificationPendingUser1 bool `json:"notification_pending_user1" db:"notification_pending_user1"`
	NotificationPendingUser2 bool `json:"notification_pending_user2" db:"notification_pending_user2"`
	NotificationSentUser1    bool `json:"notification_sent_user1" db:"notification_sent_user1"`
	NotificationSentUser2    bool `json:"notification_sent_user2" db:"notification_sent_user2"`

	AIBlurb     string   `json:"ai_blurb,omitempty" db:"ai_blurb"`
	Icebreakers []string `json:"icebreakers,omitempty"`

	// Version is the optimistic-concurrency counter, bumped on every
	// conditional update.
	Version int `json:"-" db:"version"`
}

func (m *MatchRecord) HasUser(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// SideOf returns 1 or 2 for a participant, 0 for anyone else.
func (m *MatchRecord) SideOf(userID string) int {
	switch userID {
	case m.User1ID:
		return 1
	case m.User2ID:
		return 2
	}
	return 0
}

func (m *MatchRecord) OtherUserID(userID string) (string, bool) {
	switch userID {
	case m.User1ID:
		return m.User2ID, true
	case m.User2ID:
		return m.User1ID, true
	}
	return "", false
}

func (m *MatchRecord) ActionOf(side int) Action {
	if side == 1 {
		return m.Action1
	}
	return m.Action2
}

func (m *MatchRecord) SetAction(side int, a Action) {
	if side == 1 {
		m.Action1 = a
	} else {
		m.Action2 = a
	}
}

func (m *MatchRecord) SecondChanceOffered(side int) bool {
	if side == 1 {
		return m.SecondChanceOffered1
	}
	return m.SecondChanceOffered2
}

func (m *MatchRecord) SetSecondChanceOffered(side int, v bool) {
	if side == 1 {
		m.SecondChanceOffered1 = v
	} else {
		m.SecondChanceOffered2 = v
	}
}

func (m *MatchRecord) SecondChanceResponseOf(side int) SecondChanceResponse {
	if side == 1 {
		return m.SecondChanceResponse1
	}
	return m.SecondChanceResponse2
}

func (m *MatchRecord) SetSecondChanceResponse(side int, r SecondChanceResponse) {
	if side == 1 {
		m.SecondChanceResponse1 = r
	} else {
		m.SecondChanceResponse2 = r
	}
}

func (m *MatchRecord) VisibleTo(side int) bool {
	if side == 1 {
		return m.VisibleToUser1
	}
	return m.VisibleToUser2
}

func (m *MatchRecord) SetVisibleTo(side int, v bool) {
	if side == 1 {
		m.VisibleToUser1 = v
	} else {
		m.VisibleToUser2 = v
	}
}

func (m *MatchRecord) SetNotificationPending(side int, v bool) {
	if side == 1 {
		m.NotificationPendingUser1 = v
	} else {
		m.NotificationPendingUser2 = v
	}
}

// SideLabel is the side name getMatchDetails reports back to the caller.
func SideLabel(side int) string {
	if side == 1 {
		return "user1"
	}
	return "user2"
}
