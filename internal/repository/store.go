package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
)

const queryTimeout = 3 * time.Second

// Tx exposes the row-locking queries available inside a transaction.
// Slot reads acquire exclusive row locks (SELECT ... FOR UPDATE) so that
// capacity checks and increments against one slot are totally ordered.
type Tx interface {
	// SlotForUpdate reads the slot for (branch, date, start, end) under an
	// exclusive row lock. Returns nil when no such slot exists yet.
	SlotForUpdate(ctx context.Context, branchID int64, date time.Time, start, end string) (*domain.Slot, error)
	// SlotByIDForUpdate reads a slot by id under an exclusive row lock.
	SlotByIDForUpdate(ctx context.Context, slotID int64) (*domain.Slot, error)
	// InsertSlot inserts a slot row, absorbing a uniqueness conflict.
	// Returns false when a concurrent creator won the race; the caller is
	// expected to re-read the winner's row.
	InsertSlot(ctx context.Context, s *domain.Slot) (bool, error)
	// SetSlotBookedCount persists a new booked count for a locked slot.
	SetSlotBookedCount(ctx context.Context, slotID int64, count int) error

	// InsertBooking creates a booking row and fills in its id/timestamps.
	InsertBooking(ctx context.Context, b *domain.Booking) error
	// BookingForUpdate reads a booking by id under an exclusive row lock.
	// Returns nil when the booking does not exist.
	BookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	// UpdateBooking persists status and payment id of a locked booking.
	UpdateBooking(ctx context.Context, b *domain.Booking) error
}

// TxRunner runs a function inside a single database transaction. The
// booking and slot mutations of one lifecycle step always share one
// transaction so capacity accounting cannot be half-applied.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&txQueries{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txQueries struct {
	tx pgx.Tx
}

var (
	_ TxRunner = (*Store)(nil)
	_ Tx       = (*txQueries)(nil)
)

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
