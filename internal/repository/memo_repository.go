package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/memostream/memostream-api/internal/models"
)

// MemoRepository owns persistence for memos and their per-recipient
// status/response maps. Map writes go through jsonb_set so two
// recipients acting on the same memo concurrently cannot clobber each
// other's entries.
type MemoRepository struct {
	db *sqlx.DB
}

// NewMemoRepository creates the repository.
func NewMemoRepository(db *sqlx.DB) *MemoRepository {
	return &MemoRepository{db: db}
}

const memoColumns = `id, sender_id, recipients, department, content, status, responses, archived_at, created_at, updated_at`

// Create inserts a new memo row.
func (r *MemoRepository) Create(ctx context.Context, memo *models.Memo) error {
	if memo.ID == "" {
		memo.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if memo.CreatedAt.IsZero() {
		memo.CreatedAt = now
	}
	memo.UpdatedAt = now

	const query = `INSERT INTO memos (id, sender_id, recipients, department, content, status, responses, archived_at, created_at, updated_at)
VALUES (:id, :sender_id, :recipients, :department, :content, :status, :responses, :archived_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, memo); err != nil {
		return fmt.Errorf("create memo: %w", err)
	}
	return nil
}

// GetByID returns a memo by identifier.
func (r *MemoRepository) GetByID(ctx context.Context, id string) (*models.Memo, error) {
	query := fmt.Sprintf(`SELECT %s FROM memos WHERE id = $1 LIMIT 1`, memoColumns)
	var memo models.Memo
	if err := r.db.GetContext(ctx, &memo, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find memo by id: %w", err)
	}
	return &memo, nil
}

// ListForUser returns memos where the user is the sender, a recipient,
// or the memo targets the user's department, newest first.
func (r *MemoRepository) ListForUser(ctx context.Context, userID, department string) ([]models.Memo, error) {
	query := fmt.Sprintf(`SELECT %s FROM memos
WHERE sender_id = $1 OR $1 = ANY(recipients) OR (department IS NOT NULL AND department = $2)
ORDER BY created_at DESC`, memoColumns)
	var memos []models.Memo
	if err := r.db.SelectContext(ctx, &memos, query, userID, department); err != nil {
		return nil, fmt.Errorf("list memos for user: %w", err)
	}
	return memos, nil
}

// UpsertStatus atomically sets status[recipientID] and bumps updated_at.
func (r *MemoRepository) UpsertStatus(ctx context.Context, memoID, recipientID string, entry models.StatusEntry, now time.Time) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal status entry: %w", err)
	}
	const query = `UPDATE memos SET status = jsonb_set(status, ARRAY[$2], $3::jsonb, true), updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, memoID, recipientID, payload, now)
	if err != nil {
		return fmt.Errorf("upsert memo status: %w", err)
	}
	return requireRow(res)
}

// UpsertResponse atomically sets responses[recipientID], creating the
// map on first write, and bumps updated_at.
func (r *MemoRepository) UpsertResponse(ctx context.Context, memoID, recipientID string, entry models.ResponseEntry, now time.Time) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal response entry: %w", err)
	}
	const query = `UPDATE memos SET responses = jsonb_set(COALESCE(responses, '{}'::jsonb), ARRAY[$2], $3::jsonb, true), updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, memoID, recipientID, payload, now)
	if err != nil {
		return fmt.Errorf("upsert memo response: %w", err)
	}
	return requireRow(res)
}

// Archive records the archive marker. Per-recipient status entries and
// updated_at are left untouched.
func (r *MemoRepository) Archive(ctx context.Context, memoID string, at time.Time) error {
	const query = `UPDATE memos SET archived_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, memoID, at)
	if err != nil {
		return fmt.Errorf("archive memo: %w", err)
	}
	return requireRow(res)
}

// AppendRecipients appends new recipient ids with their fresh status
// entries in a single statement.
func (r *MemoRepository) AppendRecipients(ctx context.Context, memoID string, newIDs []string, entries models.StatusMap, now time.Time) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal status entries: %w", err)
	}
	const query = `UPDATE memos SET recipients = recipients || $2, status = status || $3::jsonb, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, memoID, pq.Array(newIDs), payload, now)
	if err != nil {
		return fmt.Errorf("append memo recipients: %w", err)
	}
	return requireRow(res)
}

// CountSent returns the number of memos the user authored.
func (r *MemoRepository) CountSent(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM memos WHERE sender_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count sent memos: %w", err)
	}
	return total, nil
}

// CountInvolved returns the deduplicated number of memos where the user
// is sender, recipient, or department-matched.
func (r *MemoRepository) CountInvolved(ctx context.Context, userID, department string) (int, error) {
	const query = `SELECT COUNT(*) FROM memos WHERE sender_id = $1 OR $1 = ANY(recipients) OR (department IS NOT NULL AND department = $2)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, department); err != nil {
		return 0, fmt.Errorf("count involved memos: %w", err)
	}
	return total, nil
}

// CountArchived returns the number of involved memos carrying the
// archive marker.
func (r *MemoRepository) CountArchived(ctx context.Context, userID, department string) (int, error) {
	const query = `SELECT COUNT(*) FROM memos WHERE archived_at IS NOT NULL AND (sender_id = $1 OR $1 = ANY(recipients) OR (department IS NOT NULL AND department = $2))`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, department); err != nil {
		return 0, fmt.Errorf("count archived memos: %w", err)
	}
	return total, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
