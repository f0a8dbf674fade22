package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/repository"
)

// Sweeper expires reservations whose payment window elapsed and purges
// stale refresh tokens. It runs as a background goroutine next to the
// HTTP server.
type Sweeper struct {
	Reservations ReservationStore
	Tokens       TokenStore
	Interval     time.Duration
	Now          func() time.Time
}

func NewSweeper(reservations ReservationStore, tokens TokenStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		Reservations: reservations,
		Tokens:       tokens,
		Interval:     interval,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// Run ticks until the context is cancelled. One sweep runs immediately
// on start so a restart does not delay overdue expirations by a full
// interval.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass. Each reservation is expired with a guarded
// status update, so a payment callback racing the sweeper wins or
// loses cleanly, never both.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.Now()
	overdue, err := s.Reservations.ListByStatusExpiredBefore(ctx, model.ReservationPendingPayment, now)
	if err != nil {
		log.Printf("sweeper: list overdue reservations: %v", err)
		return
	}
	expired := 0
	for _, res := range overdue {
		err := s.Reservations.UpdateStatusIf(ctx, res.ID, model.ReservationPendingPayment, model.ReservationExpired)
		if errors.Is(err, repository.ErrStaleStatus) {
			continue // paid between the list and the update
		}
		if err != nil {
			log.Printf("sweeper: expire reservation %d: %v", res.ID, err)
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Printf("sweeper: expired %d overdue reservations", expired)
	}

	if s.Tokens != nil {
		if n, err := s.Tokens.PurgeExpiredBefore(ctx, now); err != nil {
			log.Printf("sweeper: purge refresh tokens: %v", err)
		} else if n > 0 {
			log.Printf("sweeper: purged %d expired refresh tokens", n)
		}
	}
}
