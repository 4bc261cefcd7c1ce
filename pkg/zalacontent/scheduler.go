package zalacontent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Scheduler promotes due scheduled posts on a fixed interval. Each pass
// scans for posts whose scheduled time has arrived and drives the service's
// publish transition for their parent items, one transaction per item so a
// failure on one does not block the rest of the pass.
//
// Exactly-once promotion comes from the publish transition itself: it only
// succeeds from sub-state "scheduled", read under a row lock in the same
// transaction that flips the post to "live", so a post picked up by two
// overlapping passes is promoted once and skipped by the loser.
type Scheduler struct {
	svc      Service
	repo     Repository
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// SchedulerOption represents a functional option for configuring the scheduler
type SchedulerOption func(*Scheduler)

// WithInterval sets the pass interval (default: one minute)
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithSchedulerClock overrides the scheduler's time source
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithSchedulerLogger sets the structured logger for the scheduler
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a scheduler over the given service and repository
func NewScheduler(svc Service, repo Repository, options ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		svc:      svc,
		repo:     repo,
		interval: time.Minute,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// PassResult summarizes one publish sweep.
type PassResult struct {
	Due       int
	Published int
	Skipped   int
	Failed    int
	FailedIDs []uuid.UUID
}

// Run executes passes on the configured interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunPass(ctx)
		}
	}
}

// RunPass performs one due-item scan and publish sweep. Failed items stay
// eligible and are retried on the next pass.
func (s *Scheduler) RunPass(ctx context.Context) PassResult {
	var result PassResult

	due, err := s.repo.ListDuePosts(ctx, s.now())
	if err != nil {
		s.logger.Error("scheduler pass failed to list due posts", "error", err)
		return result
	}

	result.Due = len(due)
	if len(due) == 0 {
		s.logger.Debug("scheduler pass found nothing due")
		return result
	}

	for _, post := range due {
		err := s.svc.PublishContent(ctx, post.ContentID)
		switch {
		case err == nil:
			result.Published++
		case isAlreadyHandled(err):
			// Promoted by an overlapping pass between our scan and this
			// publish. Nothing to do.
			result.Skipped++
		default:
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, post.ContentID)
			s.logger.Error("scheduled publish failed",
				"content_id", post.ContentID, "post_id", post.ID, "error", err)
		}
	}

	s.logger.Info("scheduler pass complete",
		"due", result.Due, "published", result.Published,
		"skipped", result.Skipped, "failed", result.Failed)

	return result
}

func isAlreadyHandled(err error) bool {
	return errorsIsAny(err, ErrNotScheduled, ErrAlreadyPublished, ErrContentNotFound)
}
