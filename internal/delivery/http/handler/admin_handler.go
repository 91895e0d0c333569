package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/kindred-app/kindred-backend/internal/usecase/batch"
)

var validate = validator.New()

type AdminHandler struct {
	resolver *batch.Resolver
}

func NewAdminHandler(resolver *batch.Resolver) *AdminHandler {
	return &AdminHandler{resolver: resolver}
}

// RunBatchRequest optionally overrides the sweep's settings for this run
// only; omitted fields keep the configured defaults.
type RunBatchRequest struct {
	DailyLimit     *int `json:"daily_limit" validate:"omitempty,gte=1,lte=100"`
	ScoreThreshold *int `json:"score_threshold" validate:"omitempty,gte=0,lte=100"`
}

// RunBatch triggers one matching sweep. Normally the sweep runs on a
// schedule; this endpoint exists for operations and testing.
func (h *AdminHandler) RunBatch(c *gin.Context) {
	cfg := h.resolver.BaseConfig()

	if c.Request.ContentLength > 0 {
		var req RunBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "invalid_input"})
			return
		}
		if err := validate.Struct(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_input"})
			return
		}
		if req.DailyLimit != nil {
			cfg.DailyLimit = *req.DailyLimit
		}
		if req.ScoreThreshold != nil {
			cfg.ScoreThreshold = *req.ScoreThreshold
		}
	}

	summary, err := h.resolver.RunWith(c.Request.Context(), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
