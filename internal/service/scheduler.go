package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/config"
)

// Scheduler runs the detector sweep and the stats refresh as gocron jobs.
type Scheduler struct {
	config    *config.SchedulerConfig
	logger    *zap.Logger
	detector  *DuePostDetector
	stats     *StatsUpdater
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, detector *DuePostDetector, stats *StatsUpdater) *Scheduler {
	return &Scheduler{
		config:   cfg,
		logger:   logger,
		detector: detector,
		stats:    stats,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.IsEnabled() {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	detectEvery, err := s.config.DetectEvery()
	if err != nil {
		return err
	}
	statsEvery, err := s.config.StatsEvery()
	if err != nil {
		return err
	}
	loc, err := s.config.Location()
	if err != nil {
		return err
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	if _, err := scheduler.NewJob(
		gocron.DurationJob(detectEvery),
		gocron.NewTask(func() {
			s.runSweep(ctx)
		}),
		gocron.WithName("due-post-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule due post sweep: %w", err)
	}

	if s.stats != nil {
		if _, err := scheduler.NewJob(
			gocron.DurationJob(statsEvery),
			gocron.NewTask(func() {
				s.stats.Update(ctx)
			}),
			gocron.WithName("stats"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		); err != nil {
			cancel()
			return fmt.Errorf("failed to schedule stats job: %w", err)
		}
	}

	s.scheduler = scheduler
	s.cancel = cancel
	scheduler.Start()

	s.logger.Info("Starting scheduler",
		zap.Duration("detect_interval", detectEvery),
		zap.Duration("stats_interval", statsEvery),
		zap.String("timezone", loc.String()))
	return nil
}

func (s *Scheduler) Stop() {
	if s.scheduler == nil {
		return
	}
	s.cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("Scheduler shutdown failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduler shutdown completed")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if _, err := s.detector.Sweep(ctx); err != nil {
		s.logger.Error("Scheduled sweep failed", zap.Error(err))
	}
}
