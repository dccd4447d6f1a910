package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memostream/memostream-api/internal/models"
)

func TestListFieldsInCreationOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFieldRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "type", "required", "options", "created_by", "created_at"}).
		AddRow("f1", "subject", string(models.FieldTypeText), true, nil, "admin", now.Add(-time.Hour)).
		AddRow("f2", "priority", string(models.FieldTypeSelect), false, "{low,high}", "admin", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type, required, options, created_by, created_at FROM memo_fields ORDER BY created_at")).
		WillReturnRows(rows)

	fields, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "subject", fields[0].Name)
	assert.True(t, fields[0].Required)
	assert.Equal(t, []string{"low", "high"}, []string(fields[1].Options))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFieldByNameNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFieldRepository(db)

	mock.ExpectQuery("SELECT .* FROM memo_fields WHERE name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByName(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFieldAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFieldRepository(db)

	mock.ExpectExec("INSERT INTO memo_fields").WillReturnResult(sqlmock.NewResult(1, 1))

	field := &models.MemoField{Name: "deadline", Type: models.FieldTypeDate, Required: true, CreatedBy: "admin"}
	err := repo.Create(context.Background(), field)
	require.NoError(t, err)
	assert.NotEmpty(t, field.ID)
	assert.False(t, field.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
