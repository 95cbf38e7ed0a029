package scheduler

import (
	"context"
	"time"

	"github.com/neeravgigglesandgrins/giggles/internal/service"
	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
)

// Reconciler periodically force-expires overdue PENDING bookings. It is a
// safety net independent of the request path: a booking whose owner never
// calls confirm still releases its capacity within one sweep interval.
type Reconciler struct {
	bookings service.BookingService
	interval time.Duration
}

func New(bookings service.BookingService, interval time.Duration) *Reconciler {
	return &Reconciler{bookings: bookings, interval: interval}
}

// Run blocks until ctx is canceled, sweeping on a fixed interval.
func (r *Reconciler) Run(ctx context.Context) error {
	logger.Info("Starting booking expiry reconciler", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping booking expiry reconciler")
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	expired, err := r.bookings.ExpireOverdue(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Booking expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		logger.InfoContext(ctx, "Expired overdue bookings", "count", expired)
	}
}
