package service

import (
	"context"
	"time"

	"github.com/iliyamo/community-reservations/internal/model"
)

// ExpireStale marks pending bookings older than the pending hold as
// expired and emits an event for each.  It returns how many changed.
func (r *Reservations) ExpireStale(ctx context.Context) (int, error) {
	if r.policy.PendingTTL <= 0 {
		return 0, nil
	}
	cutoff := r.clock.Current().UTC().Add(-r.policy.PendingTTL)
	expired, err := r.ledger.ExpirePending(ctx, cutoff)
	for _, b := range expired {
		r.emit(ctx, model.EventBookingExpired, b, "")
	}
	if len(expired) > 0 {
		r.log.Info("pending bookings expired", "count", len(expired))
	}
	return len(expired), err
}

// RunSweeper calls ExpireStale every interval until ctx is done.
func (r *Reservations) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.policy.PendingTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ExpireStale(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("expiry sweep failed", "err", err)
			}
		}
	}
}
