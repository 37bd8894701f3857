package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultPublishSpec = "0 * * * * *"
	specImageAudit     = "0 */15 * * * *"
)

type PublishTask interface {
	Run()
}

type ImageAuditTask interface {
	Run()
}

type Deps struct {
	PublishJob    PublishTask
	PublishSpec   string
	ImageAuditJob ImageAuditTask
}

// NewScheduler registers the background jobs. The caller starts and stops
// the returned cron.
func NewScheduler(deps Deps, logger *zap.Logger) *cron.Cron {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	if deps.PublishJob != nil {
		spec := deps.PublishSpec
		if spec == "" {
			spec = DefaultPublishSpec
		}
		addFunc(c, spec, "announcement.publish_due", logger, deps.PublishJob.Run)
	}
	if deps.ImageAuditJob != nil {
		addFunc(c, specImageAudit, "image.audit_pending_deletion", logger, deps.ImageAuditJob.Run)
	}

	return c
}

func addFunc(c *cron.Cron, spec string, name string, logger *zap.Logger, fn func()) {
	if c == nil || fn == nil {
		return
	}

	if _, err := c.AddFunc(spec, func() {
		defer recoverJobPanic(name, logger)
		start := time.Now()
		fn()
		logger.Debug("scheduler job finished", zap.String("job", name), zap.Duration("cost", time.Since(start)))
	}); err != nil {
		logger.Error("register scheduler job failed",
			zap.String("job", name),
			zap.String("spec", spec),
			zap.Error(err),
		)
	}
}

func recoverJobPanic(jobName string, logger *zap.Logger) {
	if recovered := recover(); recovered != nil {
		logger.Error("scheduler job panic recovered",
			zap.String("job", jobName),
			zap.Any("panic", recovered),
		)
	}
}

// Stop stops c and waits briefly for running jobs.
func Stop(c *cron.Cron, timeout time.Duration) {
	if c == nil {
		return
	}

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(timeout):
	}
}
