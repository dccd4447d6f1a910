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

type userServiceMock struct {
	listResp   []models.User
	listPage   *models.Pagination
	listErr    error
	getResp    *models.User
	getErr     error
	updateResp *models.User
	updateErr  error
	deleteErr  error

	lastFilter  models.UserFilter
	lastID      string
	lastActorID string
}

func (m *userServiceMock) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	m.lastFilter = filter
	return m.listResp, m.listPage, m.listErr
}

func (m *userServiceMock) Get(ctx context.Context, id string) (*models.User, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *userServiceMock) Update(ctx context.Context, id string, req service.UpdateUserRequest, actorID string) (*models.User, error) {
	m.lastID = id
	m.lastActorID = actorID
	return m.updateResp, m.updateErr
}

func (m *userServiceMock) Delete(ctx context.Context, id string, actorID string) error {
	m.lastID = id
	m.lastActorID = actorID
	return m.deleteErr
}

func TestUserHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{
		listResp: []models.User{{ID: "u1"}},
		listPage: &models.Pagination{Page: 2, PageSize: 5, TotalCount: 11},
	}
	handler := NewUserHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/users?page=2&page_size=5&role=Staff&active=true&department=IT&search=alice", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 5, mockSvc.lastFilter.PageSize)
	require.NotNil(t, mockSvc.lastFilter.Role)
	assert.Equal(t, models.RoleStaff, *mockSvc.lastFilter.Role)
	require.NotNil(t, mockSvc.lastFilter.Active)
	assert.True(t, *mockSvc.lastFilter.Active)
	assert.Equal(t, "IT", mockSvc.lastFilter.Department)
	assert.Equal(t, "alice", mockSvc.lastFilter.Search)

	var body struct {
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 11, body.Pagination.TotalCount)
}

func TestUserHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{getErr: appErrors.ErrNotFound}
	handler := NewUserHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	req, _ := http.NewRequest(http.MethodGet, "/users/missing", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing", mockSvc.lastID)
}

func TestUserHandlerUpdatePassesActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{updateResp: &models.User{ID: "u2"}}
	handler := NewUserHandler(mockSvc)

	payload := []byte(`{"name":"New Name"}`)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "u2"}}
	req, _ := http.NewRequest(http.MethodPut, "/users/u2", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", mockSvc.lastID)
	assert.Equal(t, "admin", mockSvc.lastActorID)
}

func TestUserHandlerUpdateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUserHandler(&userServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "u2"}}
	req, _ := http.NewRequest(http.MethodPut, "/users/u2", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &userServiceMock{}
	handler := NewUserHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "u3"}}
	req, _ := http.NewRequest(http.MethodDelete, "/users/u3", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u3", mockSvc.lastID)
	assert.Equal(t, "admin", mockSvc.lastActorID)
}
