package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/memostream/memostream-api/internal/models"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

const fieldsCacheKey = "memo_fields:all"

type fieldRepository interface {
	List(ctx context.Context) ([]models.MemoField, error)
	FindByName(ctx context.Context, name string) (*models.MemoField, error)
	Create(ctx context.Context, field *models.MemoField) error
}

type fieldCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CreateFieldRequest is the payload for defining a memo field.
type CreateFieldRequest struct {
	Name     string               `json:"name" validate:"required,min=1"`
	Type     models.MemoFieldType `json:"type" validate:"required"`
	Required bool                 `json:"required"`
	Options  []string             `json:"options"`
}

// FieldService manages the memo field registry. The registry is read
// on every memo creation, so the field list is cached with a short TTL
// and invalidated when a field is created.
type FieldService struct {
	repo      fieldRepository
	cache     fieldCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// SetMetrics attaches cache hit/miss observation.
func (s *FieldService) SetMetrics(m *MetricsService) {
	s.metrics = m
}

// NewFieldService constructs the service. The cache may be nil.
func NewFieldService(repo fieldRepository, cache fieldCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *FieldService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &FieldService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// ListFields returns all memo fields in creation order, serving from
// cache when possible.
func (s *FieldService) ListFields(ctx context.Context) ([]models.MemoField, error) {
	if s.cache != nil {
		var cached []models.MemoField
		if err := s.cache.Get(ctx, fieldsCacheKey, &cached); err == nil {
			s.metrics.ObserveCacheLookup(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("field cache read failed", zap.Error(err))
		}
		s.metrics.ObserveCacheLookup(false)
	}

	fields, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list memo fields")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, fieldsCacheKey, fields, s.cacheTTL); err != nil {
			s.logger.Warn("field cache write failed", zap.Error(err))
		}
	}

	return fields, nil
}

// Create defines a new memo field. Field names are unique; a duplicate
// name is a conflict.
func (s *FieldService) Create(ctx context.Context, req CreateFieldRequest, actorID string) (*models.MemoField, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid field type")
	}
	if req.Type == models.FieldTypeSelect && len(req.Options) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select fields require options")
	}

	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "field with this name already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check field uniqueness")
	}

	field := &models.MemoField{
		Name:      req.Name,
		Type:      req.Type,
		Required:  req.Required,
		Options:   pq.StringArray(req.Options),
		CreatedBy: actorID,
	}

	if err := s.repo.Create(ctx, field); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create memo field")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, fieldsCacheKey); err != nil {
			s.logger.Warn("field cache invalidation failed", zap.Error(err))
		}
	}

	return field, nil
}
