package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/memostream/memostream-api/internal/models"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

func exportMemo() *models.Memo {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return &models.Memo{
		ID:         "m1",
		SenderID:   "u1",
		Recipients: []string{"u2", "u3"},
		Content:    models.MemoContent{"subject": "quarterly report", "body": "please review"},
		Status: models.StatusMap{
			"u2": {Status: models.StatusRead, Timestamp: now},
			"u3": {Status: models.StatusSent, Timestamp: now},
		},
		Responses: models.ResponseMap{
			"u2": {Reply: "looks good", Approved: true, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newExportService(memo *models.Memo) *ExportService {
	repo := &mockMemoRepo{memo: memo}
	users := &mockResolver{byID: map[string]*models.User{
		"u1": {ID: "u1", Name: "Alice"},
		"u2": {ID: "u2", Name: "Bob"},
		"u3": {ID: "u3", Name: "Cara"},
	}}
	return NewExportService(repo, users, zap.NewNop())
}

func TestExportMemoPDF(t *testing.T) {
	svc := newExportService(exportMemo())

	result, err := svc.ExportMemo(context.Background(), staffClaims("u1", ""), "m1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "memo-m1.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestExportMemoCSV(t *testing.T) {
	svc := newExportService(exportMemo())

	result, err := svc.ExportMemo(context.Background(), staffClaims("u1", ""), "m1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)

	out := string(result.Data)
	assert.Contains(t, out, "Recipient,Status,Status At,Reply,Approved,Replied At")
	assert.Contains(t, out, "Bob,read")
	assert.Contains(t, out, "looks good,true")
	assert.Contains(t, out, "Cara,sent")
}

func TestExportMemoDefaultsToPDF(t *testing.T) {
	svc := newExportService(exportMemo())

	result, err := svc.ExportMemo(context.Background(), staffClaims("u1", ""), "m1", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
}

func TestExportMemoUnsupportedFormat(t *testing.T) {
	svc := newExportService(exportMemo())

	_, err := svc.ExportMemo(context.Background(), staffClaims("u1", ""), "m1", "xml")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportMemoOnlySenderOrAdmin(t *testing.T) {
	svc := newExportService(exportMemo())

	_, err := svc.ExportMemo(context.Background(), staffClaims("u2", ""), "m1", FormatPDF)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin := &models.JWTClaims{UserID: "u9", Role: models.RoleAdmin}
	_, err = svc.ExportMemo(context.Background(), admin, "m1", FormatPDF)
	require.NoError(t, err)
}
