package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memostream/memostream-api/internal/models"
	"github.com/memostream/memostream-api/internal/service"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
	"github.com/memostream/memostream-api/pkg/response"
)

type fieldService interface {
	ListFields(ctx context.Context) ([]models.MemoField, error)
	Create(ctx context.Context, req service.CreateFieldRequest, actorID string) (*models.MemoField, error)
}

// FieldHandler exposes the memo field registry.
type FieldHandler struct {
	service fieldService
}

// NewFieldHandler creates a new field handler.
func NewFieldHandler(svc fieldService) *FieldHandler {
	return &FieldHandler{service: svc}
}

// List godoc
// @Summary List memo fields
// @Description List the registered memo fields in creation order
// @Tags Fields
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /fields [get]
func (h *FieldHandler) List(c *gin.Context) {
	fields, err := h.service.ListFields(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, fields, nil)
}

// Create godoc
// @Summary Create memo field
// @Description Register a new memo field definition
// @Tags Fields
// @Accept json
// @Produce json
// @Param payload body service.CreateFieldRequest true "Field payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fields [post]
func (h *FieldHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid field payload"))
		return
	}

	field, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, field)
}
