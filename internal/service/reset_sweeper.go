package service

import (
	"context"
	"log"
	"time"

	"tripstack/internal/repository"
)

// ResetTokenSweeper periodically deletes expired password reset tokens.
// Expiry itself is enforced at read time; the sweep only keeps the table from
// growing without bound.
type ResetTokenSweeper struct {
	resetRepo repository.ResetTokenRepository
	interval  time.Duration
}

// NewResetTokenSweeper creates a sweeper with the given interval.
func NewResetTokenSweeper(resetRepo repository.ResetTokenRepository, interval time.Duration) *ResetTokenSweeper {
	return &ResetTokenSweeper{resetRepo: resetRepo, interval: interval}
}

// Run sweeps until the context is cancelled. Blocking; callers run it in a
// goroutine.
func (s *ResetTokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ResetTokenSweeper) sweep(ctx context.Context) {
	deleted, err := s.resetRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("reset token sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("reset token sweep removed %d expired tokens", deleted)
	}
}
