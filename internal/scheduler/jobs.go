package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
)

const jobTimeout = 30 * time.Second

type Publisher interface {
	PublishDue(ctx context.Context, from, to time.Time) ([]*announcement.Announcement, error)
}

// PublishJob finds announcements whose schedule passed since the previous
// run so the main announcement cache is refreshed as soon as they go live.
type PublishJob struct {
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

func NewPublishJob(publisher Publisher, logger *zap.Logger) *PublishJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishJob{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (j *PublishJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.RunAt(ctx, j.now().UTC()); err != nil {
		j.logger.Warn("publish due announcements failed", zap.Error(err))
	}
}

// RunAt publishes what became due in (lastRun, now]. The first run looks back
// one minute. lastRun only advances on success so a failed window is retried.
func (j *PublishJob) RunAt(ctx context.Context, now time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	from := j.lastRun
	if from.IsZero() {
		from = now.Add(-time.Minute)
	}

	due, err := j.publisher.PublishDue(ctx, from, now)
	if err != nil {
		return 0, err
	}
	j.lastRun = now
	return len(due), nil
}

type PendingDeletionCounter interface {
	RefreshPendingDeletion(ctx context.Context) (int, error)
}

// ImageAuditJob keeps the pending-deletion gauge current and reminds
// operators that marked images still need manual cleanup.
type ImageAuditJob struct {
	counter PendingDeletionCounter
	logger  *zap.Logger
}

func NewImageAuditJob(counter PendingDeletionCounter, logger *zap.Logger) *ImageAuditJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageAuditJob{counter: counter, logger: logger}
}

func (j *ImageAuditJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.counter.RefreshPendingDeletion(ctx)
	if err != nil {
		j.logger.Warn("count images pending deletion failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Info("images awaiting manual deletion", zap.Int("count", n))
	}
}
