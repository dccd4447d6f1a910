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
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

type paraphraserMock struct {
	resp     string
	err      error
	lastText string
}

func (m *paraphraserMock) Paraphrase(ctx context.Context, text string) (string, error) {
	m.lastText = text
	return m.resp, m.err
}

func TestParaphraseHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &paraphraserMock{resp: "Kindly revise the draft."}
	handler := NewParaphraseHandler(mockSvc)

	payload, _ := json.Marshal(dto.ParaphraseRequest{Text: "fix the draft"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/paraphrase", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Paraphrase(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fix the draft", mockSvc.lastText)

	var body struct {
		Data dto.ParaphraseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "fix the draft", body.Data.Original)
	assert.Equal(t, "Kindly revise the draft.", body.Data.Paraphrased)
}

func TestParaphraseHandlerEmptyText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &paraphraserMock{}
	handler := NewParaphraseHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/paraphrase", bytes.NewBufferString(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Paraphrase(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.lastText)
}

func TestParaphraseHandlerProviderFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &paraphraserMock{err: appErrors.ErrExternalService}
	handler := NewParaphraseHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/paraphrase", bytes.NewBufferString(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Paraphrase(c)
	require.Equal(t, http.StatusBadGateway, w.Code)
}
