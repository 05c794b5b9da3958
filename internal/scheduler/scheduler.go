// Package scheduler triggers ingestion runs on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner is the pipeline entry point the scheduler drives.
type Runner interface {
	Run(ctx context.Context, sources []string, itemsPerSource int) error
}

// Scheduler invokes the pipeline immediately and then once per interval.
type Scheduler struct {
	runner         Runner
	sources        []string
	itemsPerSource int
	interval       time.Duration
	log            *slog.Logger
}

// New creates a Scheduler for the given source order and quota.
func New(runner Runner, sources []string, itemsPerSource int, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:         runner,
		sources:        sources,
		itemsPerSource: itemsPerSource,
		interval:       interval,
		log:            log,
	}
}

// Run starts the scheduling loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.runner.Run(ctx, s.sources, s.itemsPerSource); err != nil {
		s.log.Error("ingestion run failed", "error", err)
		return
	}
	s.log.Info("ingestion run completed", "duration", time.Since(start).Round(time.Millisecond))
}
