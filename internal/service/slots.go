package service

import (
	"context"
	"fmt"
	"time"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	"github.com/neeravgigglesandgrins/giggles/internal/repository"
	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
)

// ensureSlotsForDate materializes the day's slot grid for a branch.
// Idempotent: every insert absorbs the uniqueness conflict, so concurrent
// first-access callers each end up observing one winner row per window and
// existing rows (including their booked counts) are never touched.
func (s *bookingService) ensureSlotsForDate(ctx context.Context, branchID int64, date time.Time) error {
	windows := s.slotWindows()

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		for _, w := range windows {
			slot := &domain.Slot{
				BranchID:    branchID,
				SlotDate:    date,
				StartTime:   w.start,
				EndTime:     w.end,
				MaxCapacity: s.cfg.Booking.SlotCapacity,
				BookedCount: 0,
			}
			if _, err := tx.InsertSlot(ctx, slot); err != nil {
				return fmt.Errorf("failed to create slot %s-%s: %w", w.start, w.end, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Materialized slot grid",
		"branch_id", branchID, "date", date.Format("2006-01-02"), "windows", len(windows))
	return nil
}

type slotWindow struct {
	start string
	end   string
}

func (s *bookingService) slotWindows() []slotWindow {
	open, close := s.cfg.Booking.SlotOpenHour, s.cfg.Booking.SlotCloseHour

	windows := make([]slotWindow, 0, close-open)
	for h := open; h < close; h++ {
		windows = append(windows, slotWindow{
			start: fmt.Sprintf("%02d:00", h),
			end:   fmt.Sprintf("%02d:00", h+1),
		})
	}
	return windows
}
