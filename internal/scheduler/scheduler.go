package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/config"
)

// Purger deletes stored simulations older than a maximum age.
type Purger interface {
	PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	purger  Purger
	cfg     config.RetentionConfig
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.RetentionConfig, purger Purger, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:    cron.New(),
		purger:  purger,
		cfg:     cfg,
		timeout: 2 * time.Minute,
		logger:  logger,
	}
}

// Start registers the retention job, when enabled, and starts the scheduler.
func (s *Scheduler) Start() error {
	if s.cfg.Days <= 0 {
		s.logger.Info("retention disabled, scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.purgeExpired); err != nil {
		return fmt.Errorf("schedule retention job %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler",
		zap.String("schedule", s.cfg.CronSchedule),
		zap.Int("retention_days", s.cfg.Days))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	maxAge := time.Duration(s.cfg.Days) * 24 * time.Hour
	n, err := s.purger.PurgeOlderThan(ctx, maxAge)
	if err != nil {
		s.logger.Error("retention purge failed", zap.Error(err))
		return
	}
	s.logger.Info("retention purge finished", zap.Int64("deleted", n))
}
