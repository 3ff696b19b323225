// File: internal/infra/sched/sweepers.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/memory"
	"telegram-shop-bot/internal/infra/metrics"
)

// SessionSweeper periodically evicts expired workflow sessions. Expiry is
// enforced lazily on every read as well; the sweep only bounds memory for
// sessions nobody touches again.
type SessionSweeper struct {
	interval time.Duration
	sessions repository.SessionRepository
	log      *zerolog.Logger
}

func NewSessionSweeper(interval time.Duration, sessions repository.SessionRepository, logger *zerolog.Logger) *SessionSweeper {
	l := logger.With().Str("component", "SessionSweeper").Logger()
	return &SessionSweeper{interval: interval, sessions: sessions, log: &l}
}

func (w *SessionSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting session sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping session sweeper")
			return ctx.Err()
		case <-ticker.C:
			n := w.sessions.SweepExpired()
			metrics.SetSessionsActive(w.sessions.Len())
			if n > 0 {
				metrics.IncSessionsExpired(n)
				w.log.Info().Int("count", n).Msg("expired sessions evicted")
			}
		}
	}
}

// LimiterSweeper trims dead rate-limiter windows and stale duplicate stamps.
type LimiterSweeper struct {
	interval time.Duration
	limiter  *memory.RateLimiter
	log      *zerolog.Logger
}

func NewLimiterSweeper(interval time.Duration, limiter *memory.RateLimiter, logger *zerolog.Logger) *LimiterSweeper {
	l := logger.With().Str("component", "LimiterSweeper").Logger()
	return &LimiterSweeper{interval: interval, limiter: limiter, log: &l}
}

func (w *LimiterSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting limiter sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping limiter sweeper")
			return ctx.Err()
		case <-ticker.C:
			evicted := w.limiter.Sweep()
			metrics.SetLimiterEntries(w.limiter.Entries())
			if evicted > 0 {
				w.log.Debug().Int("evicted", evicted).Msg("limiter entries swept")
			}
		}
	}
}
