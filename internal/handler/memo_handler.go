package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memostream/memostream-api/internal/dto"
	"github.com/memostream/memostream-api/internal/models"
	"github.com/memostream/memostream-api/internal/service"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
	"github.com/memostream/memostream-api/pkg/response"
)

type memoService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateMemoRequest) (*models.Memo, error)
	ListForUser(ctx context.Context, claims *models.JWTClaims) ([]models.Memo, error)
	UpdateStatus(ctx context.Context, claims *models.JWTClaims, req dto.UpdateMemoStatusRequest) (*models.Memo, error)
	Respond(ctx context.Context, claims *models.JWTClaims, memoID string, req dto.MemoResponseRequest) (*models.Memo, error)
	Archive(ctx context.Context, claims *models.JWTClaims, memoID string) (*models.Memo, error)
	Forward(ctx context.Context, claims *models.JWTClaims, memoID string, req dto.ForwardMemoRequest) (*dto.ForwardResult, error)
}

type memoExporter interface {
	ExportMemo(ctx context.Context, claims *models.JWTClaims, memoID string, format service.ExportFormat) (*service.ExportResult, error)
}

// MemoHandler wires the memo lifecycle endpoints.
type MemoHandler struct {
	service memoService
	export  memoExporter
	metrics *service.MetricsService
}

// NewMemoHandler creates a new memo handler. Metrics may be nil.
func NewMemoHandler(svc memoService, export memoExporter, metrics *service.MetricsService) *MemoHandler {
	return &MemoHandler{service: svc, export: export, metrics: metrics}
}

// Create godoc
// @Summary Create memo
// @Description Create and send a memo to recipients or a department
// @Tags Memos
// @Accept json
// @Produce json
// @Param payload body dto.CreateMemoRequest true "Memo payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /memos [post]
func (h *MemoHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid memo payload"))
		return
	}

	memo, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveMemoCreated()

	response.Created(c, memo)
}

// List godoc
// @Summary List memos
// @Description List memos where the caller is sender, recipient, or in the target department
// @Tags Memos
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /memos [get]
func (h *MemoHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	memos, err := h.service.ListForUser(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, memos, nil)
}

// UpdateStatus godoc
// @Summary Update memo status
// @Description Record the caller's delivery status on a memo
// @Tags Memos
// @Accept json
// @Produce json
// @Param payload body dto.UpdateMemoStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /memos/status [put]
func (h *MemoHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateMemoStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	memo, err := h.service.UpdateStatus(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, memo, nil)
}

// Respond godoc
// @Summary Respond to memo
// @Description Upsert the caller's reply and approval on a memo
// @Tags Memos
// @Accept json
// @Produce json
// @Param id path string true "Memo ID"
// @Param payload body dto.MemoResponseRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /memos/{id}/response [put]
func (h *MemoHandler) Respond(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.MemoResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid response payload"))
		return
	}

	memo, err := h.service.Respond(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, memo, nil)
}

// Archive godoc
// @Summary Archive memo
// @Description Archive a memo for everyone involved
// @Tags Memos
// @Produce json
// @Param id path string true "Memo ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /memos/{id}/archive [put]
func (h *MemoHandler) Archive(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	memo, err := h.service.Archive(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, memo, nil)
}

// Forward godoc
// @Summary Forward memo
// @Description Append new recipients to an existing memo
// @Tags Memos
// @Accept json
// @Produce json
// @Param id path string true "Memo ID"
// @Param payload body dto.ForwardMemoRequest true "Forward payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /memos/{id}/forward [post]
func (h *MemoHandler) Forward(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ForwardMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid forward payload"))
		return
	}

	result, err := h.service.Forward(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Added == 0 {
		response.Message(c, http.StatusOK, result, "all recipients already present, memo unchanged")
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export memo
// @Description Download a memo as PDF or CSV
// @Tags Memos
// @Produce application/pdf
// @Param id path string true "Memo ID"
// @Param format query string false "Export format (pdf or csv)"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /memos/{id}/export [get]
func (h *MemoHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "pdf"))
	result, err := h.export.ExportMemo(c.Request.Context(), claims, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
