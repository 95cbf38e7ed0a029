package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
)

type BookingRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.BookingDetail, error)
	// ListOverduePending returns ids of PENDING bookings reserved before
	// the cutoff. Ids only: the sweep re-reads each booking under lock in
	// its own transaction before acting on it.
	ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, user_id, slot_id, status, payment_id, reserved_at, expires_at, created_at, updated_at`

func scanBooking(row interface{ Scan(dest ...any) error }) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.SlotID, &b.Status, &b.PaymentID,
		&b.ReservedAt, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.BookingDetail, error) {
	const q = `SELECT b.id, b.user_id, b.slot_id, b.status, b.payment_id,
			b.reserved_at, b.expires_at, b.created_at, b.updated_at,
			s.slot_date, to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'),
			br.name, br.city
		FROM bookings b
		JOIN slots s ON s.id = b.slot_id
		JOIN branches br ON br.id = s.branch_id
		WHERE b.user_id = $1
		ORDER BY b.reserved_at DESC`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.BookingDetail
	for rows.Next() {
		var d domain.BookingDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.SlotID, &d.Status, &d.PaymentID,
			&d.ReservedAt, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt,
			&d.SlotDate, &d.StartTime, &d.EndTime,
			&d.BranchName, &d.City,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *bookingRepository) ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	const q = `SELECT id FROM bookings
		WHERE status = $1 AND reserved_at < $2
		ORDER BY reserved_at
		LIMIT $3`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, domain.BookingPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *txQueries) InsertBooking(ctx context.Context, b *domain.Booking) error {
	const query = `INSERT INTO bookings (user_id, slot_id, status, reserved_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return q.tx.QueryRow(ctx, query,
		b.UserID, b.SlotID, b.Status, b.ReservedAt, b.ExpiresAt,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (q *txQueries) BookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	const query = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1 FOR UPDATE`

	b, err := scanBooking(q.tx.QueryRow(ctx, query, id))
	if noRows(err) {
		return nil, nil
	}
	return b, err
}

func (q *txQueries) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	const query = `UPDATE bookings SET status = $2, payment_id = $3, updated_at = now() WHERE id = $1`
	_, err := q.tx.Exec(ctx, query, b.ID, b.Status, b.PaymentID)
	return err
}

var _ BookingRepository = (*bookingRepository)(nil)
