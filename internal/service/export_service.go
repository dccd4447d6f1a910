package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/memostream/memostream-api/internal/models"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
	"github.com/memostream/memostream-api/pkg/export"
)

type exportMemoLoader interface {
	GetByID(ctx context.Context, id string) (*models.Memo, error)
}

type exportUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ExportFormat names a supported memo export encoding.
type ExportFormat string

// Supported export formats.
const (
	FormatPDF ExportFormat = "pdf"
	FormatCSV ExportFormat = "csv"
)

// ExportResult carries rendered bytes plus the content type and a
// suggested filename for the download.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService renders memos into downloadable documents.
type ExportService struct {
	memos  exportMemoLoader
	users  exportUserLookup
	pdf    *export.PDFExporter
	csv    *export.CSVExporter
	logger *zap.Logger
}

// NewExportService constructs the exporter.
func NewExportService(memos exportMemoLoader, users exportUserLookup, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		memos:  memos,
		users:  users,
		pdf:    export.NewPDFExporter(),
		csv:    export.NewCSVExporter(),
		logger: logger,
	}
}

// ExportMemo renders a memo for download. Only the sender or an Admin
// may export a memo.
func (s *ExportService) ExportMemo(ctx context.Context, claims *models.JWTClaims, memoID string, format ExportFormat) (*ExportResult, error) {
	memo, err := s.memos.GetByID(ctx, memoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "memo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load memo")
	}

	if memo.SenderID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to export this memo")
	}

	names := s.resolveNames(ctx, memo)
	table := buildStatusTable(memo, names)

	switch format {
	case FormatCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Data:        data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("memo-%s.csv", memo.ID),
		}, nil
	case FormatPDF, "":
		doc := buildDocument(memo, names, table)
		data, err := s.pdf.Render(doc)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Data:        data,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("memo-%s.pdf", memo.ID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use pdf or csv")
	}
}

// resolveNames best-effort maps recipient and sender ids to display
// names. A failed lookup falls back to the raw id.
func (s *ExportService) resolveNames(ctx context.Context, memo *models.Memo) map[string]string {
	names := make(map[string]string, len(memo.Recipients)+1)
	lookup := func(id string) {
		if _, ok := names[id]; ok {
			return
		}
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			s.logger.Warn("failed to resolve user for export", zap.String("user_id", id), zap.Error(err))
			names[id] = id
			return
		}
		names[id] = user.Name
	}
	lookup(memo.SenderID)
	for _, id := range memo.Recipients {
		lookup(id)
	}
	return names
}

func buildStatusTable(memo *models.Memo, names map[string]string) export.Table {
	table := export.Table{
		Headers: []string{"Recipient", "Status", "Status At", "Reply", "Approved", "Replied At"},
	}
	ids := append([]string(nil), memo.Recipients...)
	sort.Strings(ids)
	for _, id := range ids {
		row := []string{names[id], "", "", "", "", ""}
		if entry, ok := memo.Status[id]; ok {
			row[1] = string(entry.Status)
			row[2] = entry.Timestamp.Format(time.RFC3339)
		}
		if resp, ok := memo.Responses[id]; ok {
			row[3] = resp.Reply
			row[4] = fmt.Sprintf("%t", resp.Approved)
			row[5] = resp.Timestamp.Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func buildDocument(memo *models.Memo, names map[string]string, table export.Table) export.Document {
	meta := []export.Field{
		{Label: "Memo ID", Value: memo.ID},
		{Label: "From", Value: names[memo.SenderID]},
		{Label: "Created", Value: memo.CreatedAt.Format(time.RFC3339)},
	}
	if memo.Department != nil {
		meta = append(meta, export.Field{Label: "Department", Value: *memo.Department})
	}
	if memo.Archived() {
		meta = append(meta, export.Field{Label: "Archived", Value: memo.ArchivedAt.Format(time.RFC3339)})
	}

	keys := make([]string, 0, len(memo.Content))
	for k := range memo.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := make([]export.Field, 0, len(keys))
	for _, k := range keys {
		body = append(body, export.Field{
			Label: fieldLabel(k),
			Value: fmt.Sprintf("%v", memo.Content[k]),
		})
	}

	return export.Document{
		Title:  "Internal Memo",
		Meta:   meta,
		Body:   body,
		Status: table,
	}
}

// fieldLabel turns a snake_case registry name into a display label.
func fieldLabel(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
