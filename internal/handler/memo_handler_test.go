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

	"github.com/memostream/memostream-api/internal/dto"
	"github.com/memostream/memostream-api/internal/middleware"
	"github.com/memostream/memostream-api/internal/models"
	"github.com/memostream/memostream-api/internal/service"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

type memoServiceMock struct {
	createResp  *models.Memo
	createErr   error
	listResp    []models.Memo
	listErr     error
	statusResp  *models.Memo
	statusErr   error
	respondResp *models.Memo
	respondErr  error
	archiveResp *models.Memo
	archiveErr  error
	forwardResp *dto.ForwardResult
	forwardErr  error

	createCalled  bool
	lastCreateReq dto.CreateMemoRequest
	lastStatusReq dto.UpdateMemoStatusRequest
	lastMemoID    string
}

func (m *memoServiceMock) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateMemoRequest) (*models.Memo, error) {
	m.createCalled = true
	m.lastCreateReq = req
	return m.createResp, m.createErr
}

func (m *memoServiceMock) ListForUser(ctx context.Context, claims *models.JWTClaims) ([]models.Memo, error) {
	return m.listResp, m.listErr
}

func (m *memoServiceMock) UpdateStatus(ctx context.Context, claims *models.JWTClaims, req dto.UpdateMemoStatusRequest) (*models.Memo, error) {
	m.lastStatusReq = req
	return m.statusResp, m.statusErr
}

func (m *memoServiceMock) Respond(ctx context.Context, claims *models.JWTClaims, memoID string, req dto.MemoResponseRequest) (*models.Memo, error) {
	m.lastMemoID = memoID
	return m.respondResp, m.respondErr
}

func (m *memoServiceMock) Archive(ctx context.Context, claims *models.JWTClaims, memoID string) (*models.Memo, error) {
	m.lastMemoID = memoID
	return m.archiveResp, m.archiveErr
}

func (m *memoServiceMock) Forward(ctx context.Context, claims *models.JWTClaims, memoID string, req dto.ForwardMemoRequest) (*dto.ForwardResult, error) {
	m.lastMemoID = memoID
	return m.forwardResp, m.forwardErr
}

type memoExporterMock struct {
	resp       *service.ExportResult
	err        error
	lastFormat service.ExportFormat
}

func (m *memoExporterMock) ExportMemo(ctx context.Context, claims *models.JWTClaims, memoID string, format service.ExportFormat) (*service.ExportResult, error) {
	m.lastFormat = format
	return m.resp, m.err
}

func staffContext(w *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff, Department: "IT"})
	return c
}

func TestMemoHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &memoServiceMock{createResp: &models.Memo{ID: "m1", SenderID: "u1"}}
	handler := NewMemoHandler(mockSvc, &memoExporterMock{}, nil)

	payload, _ := json.Marshal(dto.CreateMemoRequest{
		Recipients: []string{"u2"},
		Content:    models.MemoContent{"subject": "budget"},
	})
	w := httptest.NewRecorder()
	c := staffContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/memos", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Equal(t, []string{"u2"}, mockSvc.lastCreateReq.Recipients)
}

func TestMemoHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMemoHandler(&memoServiceMock{}, &memoExporterMock{}, nil)

	w := httptest.NewRecorder()
	c := staffContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/memos", bytes.NewBufferString(`{"recipients":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoHandlerCreateMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &memoServiceMock{}
	handler := NewMemoHandler(mockSvc, &memoExporterMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/memos", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.createCalled)
}

func TestMemoHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &memoServiceMock{listResp: []models.Memo{{ID: "m1"}, {ID: "m2"}}}
	handler := NewMemoHandler(mockSvc, &memoExporterMock{}, nil)

	w := httptest.NewRecorder()
	c := staffContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/memos", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.Memo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}

func TestMemoHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &memoServiceMock{statusResp: &models.Memo{ID: "m1"}}
	handler := NewMemoHandler(mockSvc, &memoExporterMock{}, nil)

	payload, _ := json.Marshal(dto.UpdateMemoStatusRequest{MemoID: "m1", Status: models.StatusRead})
	w := httptest.NewRecorder()
	c := staffContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/memos/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", mockSvc.lastStatusReq.MemoID)
	assert.Equal(t, models.StatusRead, mockSvc.lastStatusReq.Status)
}

func TestMemoHandlerArchiveForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &memoServiceMock{archiveErr: appErrors.ErrForbidden}
	handler := NewMemoHandler(mockSvc, &memoExporterMock{}, nil)

	w := httptest.NewRecorder()
	c := staffContext(w)
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	req, _ := http.NewRequest(http.MethodPut, "/memos/m1/archive", nil)
	c.Request = req

	handler.Archive(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "m1", mockSvc.lastMemoID)
}

func TestMemoHandlerForwardNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &memoServiceMock{forwardErr: appErrors.ErrNotFound}
	handler := NewMemoHandler(mockSvc, &memoExporterMock{}, nil)

	payload, _ := json.Marshal(dto.ForwardMemoRequest{Recipients: []string{"u9"}})
	w := httptest.NewRecorder()
	c := staffContext(w)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	req, _ := http.NewRequest(http.MethodPost, "/memos/missing/forward", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Forward(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMemoHandlerForwardAllDuplicatesCarriesMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &memoServiceMock{forwardResp: &dto.ForwardResult{Added: 0, Skipped: 2}}
	handler := NewMemoHandler(mockSvc, &memoExporterMock{}, nil)

	payload, _ := json.Marshal(dto.ForwardMemoRequest{Recipients: []string{"u2", "u3"}})
	w := httptest.NewRecorder()
	c := staffContext(w)
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	req, _ := http.NewRequest(http.MethodPost, "/memos/m1/forward", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Forward(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Message string            `json:"message"`
		Data    dto.ForwardResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Message)
	assert.Equal(t, 2, body.Data.Skipped)
}

func TestMemoHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &memoExporterMock{resp: &service.ExportResult{
		Data:        []byte("a,b\n1,2\n"),
		ContentType: "text/csv",
		Filename:    "memo-m1.csv",
	}}
	handler := NewMemoHandler(&memoServiceMock{}, exporter, nil)

	w := httptest.NewRecorder()
	c := staffContext(w)
	c.Params = gin.Params{{Key: "id", Value: "m1"}}
	req, _ := http.NewRequest(http.MethodGet, "/memos/m1/export?format=csv", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.FormatCSV, exporter.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "memo-m1.csv")
	assert.Equal(t, "a,b\n1,2\n", w.Body.String())
}
