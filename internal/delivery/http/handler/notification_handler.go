package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kindred-app/kindred-backend/internal/delivery/http/middleware"
	"github.com/kindred-app/kindred-backend/internal/usecase/notify"
)

// PendingReader exposes stored, not-yet-retracted events for one user.
type PendingReader interface {
	Pending(ctx context.Context, userID string) ([]*notify.MatchEvent, error)
}

type NotificationHandler struct {
	reader PendingReader
}

func NewNotificationHandler(reader PendingReader) *NotificationHandler {
	return &NotificationHandler{reader: reader}
}

// Pending lets a reconnecting client catch up on events it missed while
// offline.
func (h *NotificationHandler) Pending(c *gin.Context) {
	userID := middleware.UserID(c)

	events, err := h.reader.Pending(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []*notify.MatchEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
