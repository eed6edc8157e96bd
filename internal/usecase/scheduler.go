package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsCollector/internal/ports"
)

// Scheduler wires the cron driver with the collector for self-triggered runs.
type Scheduler struct {
	driver    ports.Scheduler
	collector *Collector
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring collection jobs.
func NewScheduler(driver ports.Scheduler, collector *Collector, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, collector: collector, logger: logger}
}

// Start registers the collection run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.collector == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.collector.Run(ctx); err != nil && s.logger != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
