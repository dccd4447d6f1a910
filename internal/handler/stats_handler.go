package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memostream/memostream-api/internal/dto"
	"github.com/memostream/memostream-api/internal/models"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
	"github.com/memostream/memostream-api/pkg/response"
)

type statsService interface {
	GetUserStats(ctx context.Context, claims *models.JWTClaims) (*dto.UserStats, error)
}

// StatsHandler serves derived per-user memo statistics.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// UserStats godoc
// @Summary Get user stats
// @Description Summary counts of the caller's memos
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) UserStats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.service.GetUserStats(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}
