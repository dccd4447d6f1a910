package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/memostream/memostream-api/internal/models"
)

// FieldRepository persists the admin-defined memo field registry.
type FieldRepository struct {
	db *sqlx.DB
}

// NewFieldRepository creates the repository.
func NewFieldRepository(db *sqlx.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

const fieldColumns = `id, name, type, required, options, created_by, created_at`

// List returns all memo fields in creation order. Creation order is
// load-bearing: memo validation reports the first missing required
// field in this order.
func (r *FieldRepository) List(ctx context.Context) ([]models.MemoField, error) {
	query := fmt.Sprintf(`SELECT %s FROM memo_fields ORDER BY created_at`, fieldColumns)
	var fields []models.MemoField
	if err := r.db.SelectContext(ctx, &fields, query); err != nil {
		return nil, fmt.Errorf("list memo fields: %w", err)
	}
	return fields, nil
}

// FindByName returns a field by its unique name.
func (r *FieldRepository) FindByName(ctx context.Context, name string) (*models.MemoField, error) {
	query := fmt.Sprintf(`SELECT %s FROM memo_fields WHERE name = $1 LIMIT 1`, fieldColumns)
	var field models.MemoField
	if err := r.db.GetContext(ctx, &field, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find memo field by name: %w", err)
	}
	return &field, nil
}

// Create inserts a new memo field.
func (r *FieldRepository) Create(ctx context.Context, field *models.MemoField) error {
	if field.ID == "" {
		field.ID = uuid.NewString()
	}
	if field.CreatedAt.IsZero() {
		field.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO memo_fields (id, name, type, required, options, created_by, created_at) VALUES (:id, :name, :type, :required, :options, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, field); err != nil {
		return fmt.Errorf("create memo field: %w", err)
	}
	return nil
}
