package scheduler

import (
	"context"
	"innkeep/config"
	"innkeep/infras/otel"
	"innkeep/internal/domains/booking/service"
	"innkeep/shared/constant"
	"innkeep/shared/logger"
	"time"

	"github.com/rs/zerolog"
)

const defaultInterval = time.Minute

// Job is one periodic sweep. It reports how many bookings it moved.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Scheduler runs the lifecycle sweeps on a fixed interval. Each sweep goes
// through the same guarded transitions as external events, so running more
// than one scheduler is safe.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	otel     otel.Otel
	log      zerolog.Logger
}

func New(cfg *config.Config, booking service.Booking, otel otel.Otel) *Scheduler {
	interval := time.Duration(cfg.Booking.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Scheduler{
		interval: interval,
		jobs: []Job{
			{Name: "expire-overdue-pending", Run: booking.ExpireOverduePending},
			{Name: "complete-past-checkout", Run: booking.CompletePastCheckout},
		},
		otel: otel,
		log:  logger.Component("scheduler"),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Int("jobs", len(s.jobs)).Msg("Scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Tick(ctx)

		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scheduler stopped")

			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs every job once, in order. A failing job does not stop the others.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}

		s.run(ctx, job)
	}
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelSchedulerScopeName, constant.OtelSchedulerScopeName+"."+job.Name)
	defer scope.End()

	started := time.Now()

	moved, err := job.Run(ctx)

	scope.SetAttributes(map[string]any{
		"job.name":  job.Name,
		"job.moved": moved,
	})

	if err != nil {
		scope.TraceError(err)
		s.log.Error().Err(err).Str("job", job.Name).Int("moved", moved).Msg("Sweep finished with errors")

		return
	}

	event := s.log.Debug()
	if moved > 0 {
		event = s.log.Info()
	}

	event.Str("job", job.Name).Int("moved", moved).Dur("took", time.Since(started)).Msg("Sweep finished")
}
