// Package scheduler drives the periodic insight sweeps. The daily sweep
// runs the churn engine and the per-member analyzers for every active
// trainer; the weekly sweep additionally runs the trainer-wide pattern
// analyzers.
package scheduler

import (
	"context"
	"time"

	"ptpal/internal/repository"
	"ptpal/internal/service"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Sweeper struct {
	trainers       repository.TrainerRepo
	insights       *service.InsightService
	limiter        *rate.Limiter
	dailyInterval  time.Duration
	weeklyInterval time.Duration
	logger         zerolog.Logger
}

// NewSweeper creates a new sweeper. The limiter spaces out per-trainer
// sweeps so a large tenant list does not hammer the database in a burst.
func NewSweeper(trainers repository.TrainerRepo, insights *service.InsightService, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		trainers:       trainers,
		insights:       insights,
		limiter:        rate.NewLimiter(rate.Every(2*time.Second), 1),
		dailyInterval:  24 * time.Hour,
		weeklyInterval: 7 * 24 * time.Hour,
		logger:         logger.With().Str("component", "sweeper").Logger(),
	}
}

// Start launches the sweep loops. They stop when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.loop(ctx, s.dailyInterval, false)
	go s.loop(ctx, s.weeklyInterval, true)
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, extended bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, extended)
		}
	}
}

// RunOnce sweeps every active trainer sequentially. A single trainer's
// failure is logged and skipped.
func (s *Sweeper) RunOnce(ctx context.Context, extended bool) {
	start := time.Now()
	now := time.Now()

	trainerIDs, err := s.trainers.ListActiveIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list trainers failed, sweep aborted")
		return
	}

	var swept, failed int
	var total service.SweepStats
	for _, id := range trainerIDs {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		stats, err := s.insights.GenerateForTrainer(ctx, id, now, extended)
		if err != nil {
			failed++
			s.logger.Error().Err(err).Str("trainer", id).Msg("trainer sweep failed")
			continue
		}
		swept++
		total.TotalMembers += stats.TotalMembers
		total.TotalGenerated += stats.TotalGenerated
		total.NewSaved += stats.NewSaved
		total.SkippedDuplicates += stats.SkippedDuplicates
	}

	s.logger.Info().
		Bool("extended", extended).
		Int("trainers", len(trainerIDs)).
		Int("swept", swept).
		Int("failed", failed).
		Int("members", total.TotalMembers).
		Int("saved", total.NewSaved).
		Int("duplicates", total.SkippedDuplicates).
		Dur("duration", time.Since(start)).
		Msg("sweep complete")
}
