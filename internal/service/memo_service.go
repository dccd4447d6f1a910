package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/memostream/memostream-api/internal/dto"
	"github.com/memostream/memostream-api/internal/models"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

type memoRepository interface {
	Create(ctx context.Context, memo *models.Memo) error
	GetByID(ctx context.Context, id string) (*models.Memo, error)
	ListForUser(ctx context.Context, userID, department string) ([]models.Memo, error)
	UpsertStatus(ctx context.Context, memoID, recipientID string, entry models.StatusEntry, now time.Time) error
	UpsertResponse(ctx context.Context, memoID, recipientID string, entry models.ResponseEntry, now time.Time) error
	Archive(ctx context.Context, memoID string, at time.Time) error
	AppendRecipients(ctx context.Context, memoID string, newIDs []string, entries models.StatusMap, now time.Time) error
}

type recipientResolver interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByDepartment(ctx context.Context, department string) ([]models.User, error)
}

type fieldLister interface {
	ListFields(ctx context.Context) ([]models.MemoField, error)
}

type memoNotifier interface {
	NotifyNewMemo(recipients []models.User, senderName string)
}

type memoAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// MemoService orchestrates the memo lifecycle: creation with recipient
// resolution and field validation, per-recipient status and response
// tracking, forwarding, and archival.
type MemoService struct {
	repo      memoRepository
	users     recipientResolver
	fields    fieldLister
	notifier  memoNotifier
	audits    memoAuditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMemoService constructs the service. The notifier may be nil.
func NewMemoService(repo memoRepository, users recipientResolver, fields fieldLister, notifier memoNotifier, audits memoAuditWriter, validate *validator.Validate, logger *zap.Logger) *MemoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoService{
		repo:      repo,
		users:     users,
		fields:    fields,
		notifier:  notifier,
		audits:    audits,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the payload against the field registry, resolves
// recipients, and persists the memo with a sent status entry for every
// resolved recipient. Notification is best-effort and never fails the
// creation.
func (s *MemoService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateMemoRequest) (*models.Memo, error) {
	if req.Content == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content is required and must be an object")
	}
	hasRecipients := len(req.Recipients) > 0
	hasDepartment := strings.TrimSpace(req.Department) != ""
	if hasRecipients == hasDepartment {
		return nil, appErrors.Clone(appErrors.ErrValidation, "must specify exactly one of recipients or department")
	}

	if err := s.validateContent(ctx, req.Content); err != nil {
		return nil, err
	}

	var (
		recipients []models.User
		err        error
	)
	if hasRecipients {
		recipients, err = s.resolveRecipients(ctx, req.Recipients)
	} else {
		recipients, err = s.users.FindByDepartment(ctx, req.Department)
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve department recipients")
		}
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := make(models.StatusMap, len(recipients))
	ids := make([]string, 0, len(recipients))
	for _, u := range recipients {
		if _, seen := status[u.ID]; seen {
			continue
		}
		ids = append(ids, u.ID)
		status[u.ID] = models.StatusEntry{Status: models.StatusSent, Timestamp: now}
	}

	memo := &models.Memo{
		SenderID:   claims.UserID,
		Recipients: pq.StringArray(ids),
		Content:    req.Content,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if hasDepartment {
		d := req.Department
		memo.Department = &d
	}

	if err := s.repo.Create(ctx, memo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create memo")
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMemo(recipients, claims.Name)
	}

	s.audit(ctx, claims, models.AuditActionMemoCreate, memo.ID, map[string]interface{}{"recipients": len(ids)})

	return memo, nil
}

// ListForUser returns memos where the user is the sender, a recipient,
// or the memo targets the user's department, newest first. Archived
// memos are included and carry the archived flag.
func (s *MemoService) ListForUser(ctx context.Context, claims *models.JWTClaims) ([]models.Memo, error) {
	memos, err := s.repo.ListForUser(ctx, claims.UserID, claims.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list memos")
	}
	return memos, nil
}

// UpdateStatus records the caller's status on a memo. Repeated calls
// with the same status overwrite the entry; no history is retained.
func (s *MemoService) UpdateStatus(ctx context.Context, claims *models.JWTClaims, req dto.UpdateMemoStatusRequest) (*models.Memo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid memo status")
	}

	memo, err := s.getMemo(ctx, req.MemoID)
	if err != nil {
		return nil, err
	}

	if !memo.HasRecipient(claims.UserID) && (claims.Department == "" || memo.DepartmentValue() != claims.Department) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to update this memo")
	}

	now := s.now()
	entry := models.StatusEntry{Status: req.Status, Timestamp: now}
	if err := s.repo.UpsertStatus(ctx, memo.ID, claims.UserID, entry, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "memo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update memo status")
	}

	if memo.Status == nil {
		memo.Status = models.StatusMap{}
	}
	memo.Status[claims.UserID] = entry
	memo.UpdatedAt = now

	s.audit(ctx, claims, models.AuditActionMemoStatus, memo.ID, map[string]interface{}{"status": req.Status})

	return memo, nil
}

// Respond upserts the caller's reply and approval on a memo. Only
// recipients may respond, and only for their own entry. Approved is
// treated as false unless strictly true.
func (s *MemoService) Respond(ctx context.Context, claims *models.JWTClaims, memoID string, req dto.MemoResponseRequest) (*models.Memo, error) {
	memo, err := s.getMemo(ctx, memoID)
	if err != nil {
		return nil, err
	}

	if !memo.HasRecipient(claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only recipients can update their reply or approval")
	}

	now := s.now()
	entry := models.ResponseEntry{
		Reply:     req.Reply,
		Approved:  req.Approved != nil && *req.Approved,
		Timestamp: now,
	}
	if err := s.repo.UpsertResponse(ctx, memo.ID, claims.UserID, entry, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "memo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update memo response")
	}

	if memo.Responses == nil {
		memo.Responses = models.ResponseMap{}
	}
	memo.Responses[claims.UserID] = entry
	memo.UpdatedAt = now

	s.audit(ctx, claims, models.AuditActionMemoResponse, memo.ID, map[string]interface{}{"approved": entry.Approved})

	return memo, nil
}

// Archive marks the whole memo as archived. Only the sender or an
// Admin may archive; per-recipient status entries are never touched.
func (s *MemoService) Archive(ctx context.Context, claims *models.JWTClaims, memoID string) (*models.Memo, error) {
	memo, err := s.getMemo(ctx, memoID)
	if err != nil {
		return nil, err
	}

	if memo.SenderID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to archive this memo")
	}

	now := s.now()
	if err := s.repo.Archive(ctx, memo.ID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "memo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive memo")
	}

	memo.ArchivedAt = &now

	s.audit(ctx, claims, models.AuditActionMemoArchive, memo.ID, nil)

	return memo, nil
}

// Forward resolves new recipients exactly like Create and appends the
// ones not already present, each with a fresh sent entry. A call where
// every recipient is already present is a no-op: nothing is written
// and updated_at keeps its value.
func (s *MemoService) Forward(ctx context.Context, claims *models.JWTClaims, memoID string, req dto.ForwardMemoRequest) (*dto.ForwardResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "recipients are required")
	}

	memo, err := s.getMemo(ctx, memoID)
	if err != nil {
		return nil, err
	}

	if memo.SenderID != claims.UserID && !memo.HasRecipient(claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to forward this memo")
	}

	resolved, err := s.resolveRecipients(ctx, req.Recipients)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(memo.Recipients))
	for _, id := range memo.Recipients {
		existing[id] = struct{}{}
	}

	now := s.now()
	added := make([]string, 0, len(resolved))
	entries := make(models.StatusMap)
	skipped := 0
	for _, u := range resolved {
		if _, dup := existing[u.ID]; dup {
			skipped++
			continue
		}
		existing[u.ID] = struct{}{}
		added = append(added, u.ID)
		entries[u.ID] = models.StatusEntry{Status: models.StatusSent, Timestamp: now}
	}

	if len(added) == 0 {
		return &dto.ForwardResult{Memo: memo, Added: 0, Skipped: skipped}, nil
	}

	if err := s.repo.AppendRecipients(ctx, memo.ID, added, entries, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "memo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to forward memo")
	}

	memo.Recipients = append(memo.Recipients, added...)
	if memo.Status == nil {
		memo.Status = models.StatusMap{}
	}
	for id, entry := range entries {
		memo.Status[id] = entry
	}
	memo.UpdatedAt = now

	s.audit(ctx, claims, models.AuditActionMemoForward, memo.ID, map[string]interface{}{"added": len(added), "skipped": skipped})

	return &dto.ForwardResult{Memo: memo, Added: len(added), Skipped: skipped}, nil
}

func (s *MemoService) getMemo(ctx context.Context, memoID string) (*models.Memo, error) {
	if memoID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "memo id is required")
	}
	memo, err := s.repo.GetByID(ctx, memoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "memo not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load memo")
	}
	return memo, nil
}

// validateContent checks the payload keys against the field registry.
// The registry is evaluated once, at creation; the first missing
// required field (in registry creation order) fails the call.
func (s *MemoService) validateContent(ctx context.Context, content models.MemoContent) error {
	fields, err := s.fields.ListFields(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load memo fields")
	}
	for _, field := range fields {
		if !field.Required {
			continue
		}
		if _, ok := content[field.Name]; !ok {
			return appErrors.MissingRequiredField(field.Name)
		}
	}
	return nil
}

// resolveRecipients maps recipient entries to users. Entries containing
// "@" resolve by email; anything else is treated as a user id and
// verified against the identity store. Unresolvable entries fail the
// whole call.
func (s *MemoService) resolveRecipients(ctx context.Context, entries []string) ([]models.User, error) {
	resolved := make([]models.User, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recipient entries must be non-empty")
		}

		var (
			user *models.User
			err  error
		)
		if strings.Contains(entry, "@") {
			user, err = s.users.FindByEmail(ctx, strings.ToLower(entry))
		} else {
			user, err = s.users.FindByID(ctx, entry)
		}
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.RecipientNotFound(entry)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve recipient")
		}

		if _, dup := seen[user.ID]; dup {
			continue
		}
		seen[user.ID] = struct{}{}
		resolved = append(resolved, *user)
	}
	return resolved, nil
}

func (s *MemoService) audit(ctx context.Context, claims *models.JWTClaims, action, memoID string, values map[string]interface{}) {
	if s.audits == nil {
		return
	}
	var payload []byte
	if values != nil {
		payload, _ = json.Marshal(values)
	}
	if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "memos",
		ResourceID: &memoID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record memo audit log", zap.String("action", action), zap.Error(err))
	}
}
