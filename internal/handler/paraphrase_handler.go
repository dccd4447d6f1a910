package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memostream/memostream-api/internal/dto"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
	"github.com/memostream/memostream-api/pkg/response"
)

type paraphraser interface {
	Paraphrase(ctx context.Context, text string) (string, error)
}

// ParaphraseHandler proxies text rewriting to the external provider.
type ParaphraseHandler struct {
	service paraphraser
}

// NewParaphraseHandler creates a new paraphrase handler.
func NewParaphraseHandler(svc paraphraser) *ParaphraseHandler {
	return &ParaphraseHandler{service: svc}
}

// Paraphrase godoc
// @Summary Paraphrase text
// @Description Rewrite memo text via the external language provider
// @Tags Paraphrase
// @Accept json
// @Produce json
// @Param payload body dto.ParaphraseRequest true "Text payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /paraphrase [post]
func (h *ParaphraseHandler) Paraphrase(c *gin.Context) {
	var req dto.ParaphraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid paraphrase payload"))
		return
	}
	if req.Text == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "text is required"))
		return
	}

	rewritten, err := h.service.Paraphrase(c.Request.Context(), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ParaphraseResponse{Original: req.Text, Paraphrased: rewritten}, nil)
}
