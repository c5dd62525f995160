// Package scheduler runs the daily preventive-maintenance alert scan.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"maintenance-service/internal/service"
)

// Scanner runs one scan under the shared scan lock and reports
// service.ErrScanInProgress when the lock is held.
type Scanner interface {
	RunExclusive(ctx context.Context) (*service.ScanResult, error)
}

type Config struct {
	DailyAt  time.Duration
	Location *time.Location
}

type Scheduler struct {
	scanner Scanner
	clock   service.Clock
	cfg     Config
	log     zerolog.Logger

	after func(time.Duration) <-chan time.Time
}

func New(scanner Scanner, clock service.Clock, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		scanner: scanner,
		clock:   clock,
		cfg:     cfg,
		log:     log.With().Str("component", "scheduler").Logger(),
		after:   time.After,
	}
}

// Run fires a scan every day at the configured time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := s.clock.Now()
		next := NextRun(now, s.cfg.DailyAt, s.cfg.Location)
		s.log.Info().Time("next_run", next).Msg("alert scan scheduled")

		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-s.after(next.Sub(now)):
		}

		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("alert scan failed")
		}
	}
}

// RunOnce performs a single scan. It returns a nil result without error when
// another scan holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (*service.ScanResult, error) {
	started := time.Now()
	result, err := s.scanner.RunExclusive(ctx)
	if errors.Is(err, service.ErrScanInProgress) {
		s.log.Info().Msg("alert scan already running, skipping")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("scanned", result.Scanned).
		Int("generated", result.Generated).
		Int("batched", result.Batched).
		Bool("notified", result.Notified).
		Dur("took", time.Since(started)).
		Msg("alert scan completed")
	return result, nil
}
