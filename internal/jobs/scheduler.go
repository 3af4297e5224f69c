package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"campus-portal/backend/config"
)

// Scheduler runs the configured jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler registers the enabled jobs. A run that is still going when its next tick comes
// is skipped.
func NewScheduler(cfg *config.JobsConfig, sweeper *OrphanSweeper, logger *zap.Logger) (*Scheduler, error) {
	cl := cronLogger{logger.Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if cfg.OrphanSweep.Enabled && sweeper != nil {
		timeout := cfg.OrphanSweep.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		_, err := c.AddFunc(cfg.OrphanSweep.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			start := time.Now()
			res, err := sweeper.Sweep(ctx)
			if err != nil {
				logger.Error("orphan sweep failed", zap.Error(err))
				return
			}
			logger.Info("orphan sweep finished",
				zap.Int("scanned", res.Scanned),
				zap.Int("deleted", res.Deleted),
				zap.Int("too_new", res.TooNew),
				zap.Int("failures", res.Failures),
				zap.Duration("took", time.Since(start)),
			)
		})
		if err != nil {
			return nil, err
		}
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("job scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the schedule and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("job scheduler stop timed out")
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
