package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/memostream/memostream-api/internal/models"
	"github.com/memostream/memostream-api/pkg/mail"
)

type emailJob struct {
	To      string
	Subject string
	Body    string
	Attempt int
}

// NotificationService delivers best-effort memo notifications by email
// through a small in-process worker pool. Delivery happens off the
// request path and failures are retried a few times, then logged and
// dropped; memo creation never depends on it.
type NotificationService struct {
	mailer mail.Mailer
	logger *zap.Logger

	workers    int
	maxRetries int
	retryDelay time.Duration

	jobs    chan emailJob
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewNotificationService constructs the service. The mailer may be nil,
// in which case notifications are dropped.
func NewNotificationService(mailer mail.Mailer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		mailer:     mailer,
		logger:     logger,
		workers:    2,
		maxRetries: 3,
		retryDelay: 5 * time.Second,
		jobs:       make(chan emailJob, 64),
	}
}

// Start launches the delivery workers. Safe to call once; a nil mailer
// leaves the pool stopped and NotifyNewMemo becomes a no-op.
func (s *NotificationService) Start(ctx context.Context) {
	if s.mailer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.started = true
	s.logger.Info("notification workers started", zap.Int("workers", s.workers))
}

// Stop cancels the workers and waits for them to exit.
func (s *NotificationService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.started = false
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("notification workers stopped")
}

// NotifyNewMemo queues an email for each recipient of a new memo.
func (s *NotificationService) NotifyNewMemo(recipients []models.User, senderName string) {
	if len(recipients) == 0 {
		return
	}

	body := fmt.Sprintf("You have received a new memo from %s. Log in to view details.", senderName)
	for _, u := range recipients {
		s.enqueue(emailJob{To: u.Email, Subject: "New Memo Received", Body: body})
	}
}

func (s *NotificationService) enqueue(job emailJob) {
	s.mu.Lock()
	started := s.started
	ctx := s.ctx
	s.mu.Unlock()

	if !started {
		return
	}

	select {
	case <-ctx.Done():
	case s.jobs <- job:
	default:
		s.logger.Warn("notification queue full, dropping email", zap.String("recipient", job.To))
	}
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case job := <-s.jobs:
			if err := s.mailer.Send(job.To, job.Subject, job.Body); err != nil {
				s.handleFailure(job, err)
			}
		}
	}
}

func (s *NotificationService) handleFailure(job emailJob, err error) {
	job.Attempt++
	if job.Attempt > s.maxRetries {
		s.logger.Error("memo notification dropped after retries",
			zap.String("recipient", job.To),
			zap.Int("attempts", job.Attempt),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("memo notification failed, retrying",
		zap.String("recipient", job.To),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)

	go func(j emailJob) {
		timer := time.NewTimer(s.retryDelay)
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
		case <-timer.C:
			s.enqueue(j)
		}
	}(job)
}
