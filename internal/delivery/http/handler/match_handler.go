package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kindred-app/kindred-backend/internal/delivery/http/middleware"
	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/usecase/lifecycle"
)

type MatchHandler struct {
	engine *lifecycle.Engine
}

func NewMatchHandler(engine *lifecycle.Engine) *MatchHandler {
	return &MatchHandler{engine: engine}
}

// MatchView is the per-caller projection of a record. It never exposes the
// other side's action, score, or second-chance state.
type MatchView struct {
	ID           string     `json:"id"`
	MatchType    string     `json:"match_type"`
	Status       string     `json:"status"`
	ChatUnlocked bool       `json:"chat_unlocked"`
	OtherUserID  string     `json:"other_user_id"`
	YourSide     string     `json:"your_side"`

	YourScore     int    `json:"your_score"`
	YourAlgorithm string `json:"your_algorithm"`
	Reason        string `json:"reason"`
	CombinedScore int    `json:"combined_score,omitempty"`

	YourAction          string `json:"your_action,omitempty"`
	SecondChanceOffered bool   `json:"second_chance_offered"`
	InterestExpressed   bool   `json:"interest_expressed,omitempty"`

	AIBlurb     string   `json:"ai_blurb,omitempty"`
	Icebreakers []string `json:"icebreakers,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	LoveAt    *time.Time `json:"love_at,omitempty"`
}

func viewFor(rec *domain.MatchRecord, userID string) *MatchView {
	side := rec.SideOf(userID)
	other, _ := rec.OtherUserID(userID)

	v := &MatchView{
		ID:                  rec.ID,
		MatchType:           string(rec.Type),
		Status:              string(rec.Status),
		ChatUnlocked:        rec.ChatUnlocked,
		OtherUserID:         other,
		YourSide:            domain.SideLabel(side),
		YourAction:          string(rec.ActionOf(side)),
		SecondChanceOffered: rec.SecondChanceOffered(side),
		CreatedAt:           rec.CreatedAt,
		LoveAt:              rec.LoveAt,
	}
	if side == 1 {
		v.YourScore, v.YourAlgorithm, v.Reason = rec.Score1, rec.Algorithm1, rec.Reason1
		v.InterestExpressed = rec.User1ExpressedInterest
	} else {
		v.YourScore, v.YourAlgorithm, v.Reason = rec.Score2, rec.Algorithm2, rec.Reason2
	}
	if rec.Type == domain.MatchTypeMutual {
		v.CombinedScore = rec.CombinedScore
	}
	if rec.ChatUnlocked {
		v.AIBlurb = rec.AIBlurb
		v.Icebreakers = rec.Icebreakers
	}
	return v
}

// ActionRequest carries the optional second-chance flag on like/pass.
type ActionRequest struct {
	IsSecondChance bool `json:"is_second_chance"`
}

// bindAction tolerates an empty body: a plain like/pass needs no payload.
func bindAction(c *gin.Context) (ActionRequest, bool) {
	var req ActionRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "invalid_input"})
		return req, false
	}
	return req, true
}

// List returns every match currently visible to the caller.
func (h *MatchHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	records, err := h.engine.ListMatches(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]*MatchView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewFor(rec, userID))
	}
	c.JSON(http.StatusOK, gin.H{"matches": views})
}

// Get returns one match from the caller's side.
func (h *MatchHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	matchID := c.Param("match_id")

	details, err := h.engine.GetMatchDetails(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": viewFor(details.Record, userID)})
}

// Like records a positive decision (or a second-chance acceptance).
func (h *MatchHandler) Like(c *gin.Context) {
	userID := middleware.UserID(c)
	matchID := c.Param("match_id")

	req, ok := bindAction(c)
	if !ok {
		return
	}

	result, err := h.engine.Like(c.Request.Context(), matchID, userID, req.IsSecondChance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match":                 viewFor(result.Record, userID),
		"is_love_match":         result.IsLoveMatch,
		"second_chance_offered": result.SecondChanceOffered,
	})
}

// Pass records a negative decision (or a second-chance refusal).
func (h *MatchHandler) Pass(c *gin.Context) {
	userID := middleware.UserID(c)
	matchID := c.Param("match_id")

	req, ok := bindAction(c)
	if !ok {
		return
	}

	result, err := h.engine.Pass(c.Request.Context(), matchID, userID, req.IsSecondChance)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match":                 viewFor(result.Record, userID),
		"is_deleted":            result.IsDeleted,
		"second_chance_offered": result.SecondChanceOffered,
	})
}

// ExpressInterest reveals a one-way match to the other user.
func (h *MatchHandler) ExpressInterest(c *gin.Context) {
	userID := middleware.UserID(c)
	matchID := c.Param("match_id")

	rec, err := h.engine.ExpressInterest(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": viewFor(rec, userID)})
}

// AcceptInterest accepts previously expressed interest, unlocking the chat.
func (h *MatchHandler) AcceptInterest(c *gin.Context) {
	userID := middleware.UserID(c)
	matchID := c.Param("match_id")

	result, err := h.engine.AcceptInterest(c.Request.Context(), matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match":         viewFor(result.Record, userID),
		"is_love_match": result.IsLoveMatch,
	})
}
