package scheduler

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick until ctx is done.
// Used for the inbox monitor loop.
func Every(ctx context.Context, interval time.Duration, name string, task Task, logger *zap.SugaredLogger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	if err := task(ctx); err != nil {
		logger.Errorw("task failed", "task", name, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := task(ctx); err != nil {
				logger.Errorw("task failed", "task", name, "error", err)
			}
		}
	}
}

// StartCron registers task under every cron spec and starts the scheduler.
// The caller owns the returned cron and stops it on shutdown.
func StartCron(ctx context.Context, specs []string, name string, task Task, logger *zap.SugaredLogger) (*cron.Cron, error) {
	c := cron.New()
	for _, spec := range specs {
		spec := spec
		if _, err := c.AddFunc(spec, func() {
			if err := task(ctx); err != nil {
				logger.Errorw("scheduled task failed", "task", name, "spec", spec, "error", err)
			}
		}); err != nil {
			return nil, errors.Wrapf(err, "register cron spec %q", spec)
		}
		logger.Infow("trigger registered", "task", name, "spec", spec)
	}
	c.Start()
	return c, nil
}
