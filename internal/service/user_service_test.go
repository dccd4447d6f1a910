package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/memostream/memostream-api/internal/models"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

type mockUserRepo struct {
	users      []models.User
	total      int
	byID       map[string]*models.User
	byEmail    map[string]*models.User
	updated    *models.User
	deletedIDs []string
	auditLogs  []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return m.users, m.total, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserListBuildsPagination(t *testing.T) {
	repo := &mockUserRepo{users: []models.User{{ID: "u1"}}, total: 45}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 45, pagination.TotalCount)
}

func TestUserUpdatePromotionToAdminDropsDepartment(t *testing.T) {
	dept := "Finance"
	repo := &mockUserRepo{byID: map[string]*models.User{
		"u1": {ID: "u1", Name: "A", Email: "a@example.com", Role: models.RoleStaff, Department: &dept, Active: true},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Role: models.RoleAdmin}, "actor")
	require.NoError(t, err)
	assert.Nil(t, user.Department)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserUpdate, repo.auditLogs[0].Action)
}

func TestUserUpdateNonAdminRequiresDepartment(t *testing.T) {
	repo := &mockUserRepo{byID: map[string]*models.User{
		"u1": {ID: "u1", Name: "A", Email: "a@example.com", Role: models.RoleAdmin, Active: true},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Role: models.RoleStudent}, "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateEmailConflict(t *testing.T) {
	dept := "IT"
	repo := &mockUserRepo{
		byID: map[string]*models.User{
			"u1": {ID: "u1", Email: "a@example.com", Role: models.RoleStaff, Department: &dept, Active: true},
		},
		byEmail: map[string]*models.User{
			"taken@example.com": {ID: "u2", Email: "taken@example.com"},
		},
	}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Email: "Taken@Example.com"}, "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserDeleteIsSoftAndAudited(t *testing.T) {
	dept := "IT"
	repo := &mockUserRepo{byID: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleStaff, Department: &dept, Active: true},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "u1", "actor")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, repo.deletedIDs)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDelete, repo.auditLogs[0].Action)
}

func TestUserDeleteNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "missing", "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
