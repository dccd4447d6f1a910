package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/memostream/memostream-api/internal/dto"
	"github.com/memostream/memostream-api/internal/models"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

type memoCounter interface {
	CountSent(ctx context.Context, userID string) (int, error)
	CountInvolved(ctx context.Context, userID, department string) (int, error)
	CountArchived(ctx context.Context, userID, department string) (int, error)
}

// StatsService derives per-user memo counts. The view is read-only and
// recomputed on every call.
type StatsService struct {
	memos  memoCounter
	logger *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(memos memoCounter, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{memos: memos, logger: logger}
}

// GetUserStats returns total/sent/archived memo counts for the user.
// Total counts the deduplicated union of memos where the user is
// sender, recipient, or department-matched, so total >= sent and
// total >= archived always hold.
func (s *StatsService) GetUserStats(ctx context.Context, claims *models.JWTClaims) (*dto.UserStats, error) {
	sent, err := s.memos.CountSent(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sent memos")
	}

	total, err := s.memos.CountInvolved(ctx, claims.UserID, claims.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count memos")
	}

	archived, err := s.memos.CountArchived(ctx, claims.UserID, claims.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count archived memos")
	}

	return &dto.UserStats{
		TotalMemos:    total,
		MemosSent:     sent,
		MemosArchived: archived,
	}, nil
}
