package service

import (
	"context"
	"fmt"
	"time"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	"github.com/neeravgigglesandgrins/giggles/internal/repository"
	"github.com/neeravgigglesandgrins/giggles/pkg/config"
	"github.com/neeravgigglesandgrins/giggles/pkg/events"
	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
)

type BookingService interface {
	AvailableSlots(ctx context.Context, branchID int64, date time.Time) ([]domain.Slot, error)
	Reserve(ctx context.Context, req *domain.ReserveRequest, userID int64) (*domain.Reservation, error)
	ConfirmPayment(ctx context.Context, req *domain.ConfirmPaymentRequest, userID int64) (*domain.Booking, error)
	MyBookings(ctx context.Context, userID int64) ([]domain.BookingDetail, error)
	// ExpireOverdue force-expires PENDING bookings whose payment window
	// has lapsed and releases their capacity. Returns how many bookings
	// were expired.
	ExpireOverdue(ctx context.Context) (int, error)
}

type bookingService struct {
	store    repository.TxRunner
	slots    repository.SlotRepository
	bookings repository.BookingRepository
	branches repository.BranchRepository
	users    repository.UserRepository
	bus      events.Publisher
	cfg      *config.Config
}

func NewBookingService(
	store repository.TxRunner,
	slots repository.SlotRepository,
	bookings repository.BookingRepository,
	branches repository.BranchRepository,
	users repository.UserRepository,
	bus events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		store:    store,
		slots:    slots,
		bookings: bookings,
		branches: branches,
		users:    users,
		bus:      bus,
		cfg:      cfg,
	}
}

func (s *bookingService) AvailableSlots(ctx context.Context, branchID int64, date time.Time) ([]domain.Slot, error) {
	branch, err := s.activeBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.ListByBranchDate(ctx, branch.ID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	// First access for this day: materialize the full grid, then re-read.
	if len(slots) == 0 {
		if err := s.ensureSlotsForDate(ctx, branch.ID, date); err != nil {
			return nil, err
		}
		slots, err = s.slots.ListByBranchDate(ctx, branch.ID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to list slots: %w", err)
		}
	}

	available := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.IsAvailable() {
			available = append(available, slot)
		}
	}
	return available, nil
}

func (s *bookingService) Reserve(ctx context.Context, req *domain.ReserveRequest, userID int64) (*domain.Reservation, error) {
	branch, err := s.activeBranch(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}

	var booking *domain.Booking
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		slot, err := s.slotForUpdateOrCreate(ctx, tx, branch.ID, req)
		if err != nil {
			return err
		}

		// The availability check must happen under the row lock taken
		// above; checking outside it would let two reservations observe
		// the same spare seat and both increment.
		if !slot.IsAvailable() {
			return fmt.Errorf("slot %d is full (%d/%d): %w",
				slot.ID, slot.BookedCount, slot.MaxCapacity, domain.ErrCapacityExceeded)
		}

		if err := tx.SetSlotBookedCount(ctx, slot.ID, slot.BookedCount+1); err != nil {
			return fmt.Errorf("failed to increment booked count: %w", err)
		}

		now := time.Now()
		booking = &domain.Booking{
			UserID:     userID,
			SlotID:     slot.ID,
			Status:     domain.BookingPending,
			ReservedAt: now,
			ExpiresAt:  now.Add(s.cfg.Booking.ReservationTimeout),
		}
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Slot reserved",
		"booking_id", booking.ID, "slot_id", booking.SlotID, "expires_at", booking.ExpiresAt)

	if err := s.bus.Publish(ctx, events.BookingReserved, events.BookingReservedEvent{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		SlotID:     booking.SlotID,
		BranchID:   branch.ID,
		ReservedAt: booking.ReservedAt,
		ExpiresAt:  booking.ExpiresAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking reserved event", "error", err, "booking_id", booking.ID)
	}

	return &domain.Reservation{
		BookingID:  booking.ID,
		PaymentURL: fmt.Sprintf("/payment/%d", booking.ID),
		ExpiresAt:  booking.ExpiresAt,
		Message:    "Slot reserved. Please complete payment within 10 minutes.",
	}, nil
}

// slotForUpdateOrCreate resolves the target slot under an exclusive row
// lock, creating it lazily on first access. The insert absorbs uniqueness
// conflicts, so when a concurrent creator wins the race the loser re-reads
// the winner's row, again under lock.
func (s *bookingService) slotForUpdateOrCreate(ctx context.Context, tx repository.Tx, branchID int64, req *domain.ReserveRequest) (*domain.Slot, error) {
	slot, err := tx.SlotForUpdate(ctx, branchID, req.SlotDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	if slot != nil {
		return slot, nil
	}

	created := &domain.Slot{
		BranchID:    branchID,
		SlotDate:    req.SlotDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: s.cfg.Booking.SlotCapacity,
		BookedCount: 0,
	}
	inserted, err := tx.InsertSlot(ctx, created)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	if inserted {
		return created, nil
	}

	slot, err = tx.SlotForUpdate(ctx, branchID, req.SlotDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read slot after creation race: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("slot missing after creation race for branch %d", branchID)
	}
	return slot, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, req *domain.ConfirmPaymentRequest, userID int64) (*domain.Booking, error) {
	var (
		booking *domain.Booking
		expired bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := tx.BookingForUpdate(ctx, req.BookingID)
		if err != nil {
			return fmt.Errorf("failed to read booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %d: %w", req.BookingID, domain.ErrNotFound)
		}
		if b.UserID != userID {
			return fmt.Errorf("booking %d belongs to another user: %w", b.ID, domain.ErrForbidden)
		}
		if b.Status != domain.BookingPending {
			return fmt.Errorf("booking %d is %s: %w", b.ID, b.Status, domain.ErrInvalidState)
		}

		// A confirmation arriving after the deadline is treated exactly
		// like a reconciler sweep: the forced transition commits, then the
		// caller sees the expiry error.
		if b.Overdue(time.Now()) {
			if err := s.forceExpire(ctx, tx, b); err != nil {
				return err
			}
			booking = b
			expired = true
			return nil
		}

		b.PaymentID = &req.PaymentID
		if req.PaymentSuccess {
			b.Status = domain.BookingConfirmed
			if err := tx.UpdateBooking(ctx, b); err != nil {
				return fmt.Errorf("failed to confirm booking: %w", err)
			}
		} else {
			if err := s.forceExpire(ctx, tx, b); err != nil {
				return err
			}
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expired {
		s.publishExpired(ctx, booking, events.ExpireReasonDeadline)
		return nil, fmt.Errorf("booking %d payment window closed at %s: %w",
			booking.ID, booking.ExpiresAt.Format(time.RFC3339), domain.ErrExpired)
	}

	if booking.Status == domain.BookingConfirmed {
		logger.InfoContext(ctx, "Payment confirmed", "booking_id", booking.ID, "payment_id", req.PaymentID)
		if err := s.bus.Publish(ctx, events.BookingConfirmed, events.BookingConfirmedEvent{
			BookingID:   booking.ID,
			UserID:      booking.UserID,
			SlotID:      booking.SlotID,
			PaymentID:   req.PaymentID,
			ConfirmedAt: time.Now(),
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking confirmed event", "error", err, "booking_id", booking.ID)
		}
	} else {
		logger.InfoContext(ctx, "Payment failed, booking expired", "booking_id", booking.ID, "payment_id", req.PaymentID)
		s.publishExpired(ctx, booking, events.ExpireReasonPaymentFailed)
	}

	return booking, nil
}

func (s *bookingService) MyBookings(ctx context.Context, userID int64) ([]domain.BookingDetail, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *bookingService) ExpireOverdue(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.Booking.ReservationTimeout)
	ids, err := s.bookings.ListOverduePending(ctx, cutoff, s.cfg.Booking.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue bookings: %w", err)
	}

	expired := 0
	for _, id := range ids {
		var booking *domain.Booking
		err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
			b, err := tx.BookingForUpdate(ctx, id)
			if err != nil {
				return err
			}
			// A racing confirm may have reached the booking first; the
			// first actor to transition it wins, the other backs off.
			if b == nil || b.Status != domain.BookingPending {
				return nil
			}
			booking = b
			return s.forceExpire(ctx, tx, b)
		})
		if err != nil {
			// One booking's failure must not abort the rest of the batch.
			logger.ErrorContext(ctx, "Failed to expire booking", "error", err, "booking_id", id)
			continue
		}
		if booking != nil {
			expired++
			s.publishExpired(ctx, booking, events.ExpireReasonDeadline)
		}
	}
	return expired, nil
}

// forceExpire transitions a PENDING booking to EXPIRED and releases its
// capacity unit, within the caller's transaction. It is the single
// implementation behind both the late-confirm path and the sweep.
func (s *bookingService) forceExpire(ctx context.Context, tx repository.Tx, b *domain.Booking) error {
	b.Status = domain.BookingExpired
	if err := tx.UpdateBooking(ctx, b); err != nil {
		return fmt.Errorf("failed to expire booking %d: %w", b.ID, err)
	}

	slot, err := tx.SlotByIDForUpdate(ctx, b.SlotID)
	if err != nil {
		return fmt.Errorf("failed to lock slot %d: %w", b.SlotID, err)
	}
	if slot == nil {
		return fmt.Errorf("slot %d missing for booking %d", b.SlotID, b.ID)
	}

	// Clamp at zero rather than go negative on a prior inconsistency.
	released := slot.BookedCount - 1
	if released < 0 {
		released = 0
	}
	if err := tx.SetSlotBookedCount(ctx, slot.ID, released); err != nil {
		return fmt.Errorf("failed to release slot %d capacity: %w", slot.ID, err)
	}
	return nil
}

func (s *bookingService) publishExpired(ctx context.Context, b *domain.Booking, reason string) {
	if err := s.bus.Publish(ctx, events.BookingExpired, events.BookingExpiredEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		SlotID:    b.SlotID,
		Reason:    reason,
		ExpiredAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking expired event", "error", err, "booking_id", b.ID)
	}
}

func (s *bookingService) activeBranch(ctx context.Context, branchID int64) (*domain.Branch, error) {
	branch, err := s.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load branch: %w", err)
	}
	if branch == nil {
		return nil, fmt.Errorf("branch %d: %w", branchID, domain.ErrNotFound)
	}
	if !branch.IsActive {
		return nil, fmt.Errorf("branch %d is inactive: %w", branchID, domain.ErrInvalidState)
	}
	return branch, nil
}
