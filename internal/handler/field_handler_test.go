package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memostream/memostream-api/internal/middleware"
	"github.com/memostream/memostream-api/internal/models"
	"github.com/memostream/memostream-api/internal/service"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

type fieldServiceMock struct {
	listResp   []models.MemoField
	listErr    error
	createResp *models.MemoField
	createErr  error

	lastReq     service.CreateFieldRequest
	lastActorID string
}

func (m *fieldServiceMock) ListFields(ctx context.Context) ([]models.MemoField, error) {
	return m.listResp, m.listErr
}

func (m *fieldServiceMock) Create(ctx context.Context, req service.CreateFieldRequest, actorID string) (*models.MemoField, error) {
	m.lastReq = req
	m.lastActorID = actorID
	return m.createResp, m.createErr
}

func TestFieldHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &fieldServiceMock{listResp: []models.MemoField{{ID: "f1", Name: "subject"}}}
	handler := NewFieldHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/fields", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.MemoField `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "subject", body.Data[0].Name)
}

func TestFieldHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &fieldServiceMock{createResp: &models.MemoField{ID: "f2", Name: "priority"}}
	handler := NewFieldHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateFieldRequest{
		Name:    "priority",
		Type:    models.FieldTypeSelect,
		Options: []string{"low", "high"},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/fields", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "priority", mockSvc.lastReq.Name)
	assert.Equal(t, "admin", mockSvc.lastActorID)
}

func TestFieldHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &fieldServiceMock{createErr: appErrors.ErrConflict}
	handler := NewFieldHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateFieldRequest{Name: "subject", Type: models.FieldTypeText})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/fields", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
