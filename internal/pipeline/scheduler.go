package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler triggers the daily pipeline job once per day at a fixed hour.
type Scheduler struct {
	pipeline *Pipeline
	log      *slog.Logger
	hour     int
	tick     time.Duration
	now      func() time.Time

	lastRunDay string
}

// NewScheduler creates a Scheduler firing the daily job at the given hour
// (UTC, 0-23).
func NewScheduler(p *Pipeline, hour int, log *slog.Logger) *Scheduler {
	return &Scheduler{
		pipeline: p,
		log:      log,
		hour:     hour,
		tick:     1 * time.Minute,
		now:      time.Now,
	}
}

// SetTickInterval overrides the default 1-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.check(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// check runs the daily job at most once per calendar day, on the first tick
// at or after the configured hour.
func (s *Scheduler) check(ctx context.Context) {
	now := s.now().UTC()
	day := now.Format("2006-01-02")
	if now.Hour() < s.hour || s.lastRunDay == day {
		return
	}
	s.lastRunDay = day

	s.log.Info("running scheduled daily job", "day", day, "hour", now.Hour())
	if _, err := s.pipeline.RunDaily(ctx); err != nil {
		s.log.Error("scheduled daily job", "error", err)
	}
}
