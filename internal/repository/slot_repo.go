package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
)

type SlotRepository interface {
	ListByBranchDate(ctx context.Context, branchID int64, date time.Time) ([]domain.Slot, error)
}

type slotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) SlotRepository {
	return &slotRepository{pool: pool}
}

const slotCols = `id, branch_id, slot_date,
to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
max_capacity, booked_count, created_at, updated_at`

func scanSlot(row interface{ Scan(dest ...any) error }) (*domain.Slot, error) {
	var s domain.Slot
	err := row.Scan(
		&s.ID, &s.BranchID, &s.SlotDate,
		&s.StartTime, &s.EndTime,
		&s.MaxCapacity, &s.BookedCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *slotRepository) ListByBranchDate(ctx context.Context, branchID int64, date time.Time) ([]domain.Slot, error) {
	const q = `SELECT ` + slotCols + `
		FROM slots
		WHERE branch_id = $1 AND slot_date = $2::date
		ORDER BY start_time`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, branchID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

func (q *txQueries) SlotForUpdate(ctx context.Context, branchID int64, date time.Time, start, end string) (*domain.Slot, error) {
	const query = `SELECT ` + slotCols + `
		FROM slots
		WHERE branch_id = $1 AND slot_date = $2::date
		  AND start_time = $3::time AND end_time = $4::time
		FOR UPDATE`

	s, err := scanSlot(q.tx.QueryRow(ctx, query, branchID, date, start, end))
	if noRows(err) {
		return nil, nil
	}
	return s, err
}

func (q *txQueries) SlotByIDForUpdate(ctx context.Context, slotID int64) (*domain.Slot, error) {
	const query = `SELECT ` + slotCols + ` FROM slots WHERE id = $1 FOR UPDATE`

	s, err := scanSlot(q.tx.QueryRow(ctx, query, slotID))
	if noRows(err) {
		return nil, nil
	}
	return s, err
}

// InsertSlot absorbs the uniqueness conflict with ON CONFLICT DO NOTHING:
// a plain unique-violation error would abort the whole transaction, while
// this leaves the loser free to re-read the winner's row under lock.
func (q *txQueries) InsertSlot(ctx context.Context, s *domain.Slot) (bool, error) {
	const query = `INSERT INTO slots (branch_id, slot_date, start_time, end_time, max_capacity, booked_count)
		VALUES ($1, $2::date, $3::time, $4::time, $5, $6)
		ON CONFLICT (branch_id, slot_date, start_time, end_time) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := q.tx.QueryRow(ctx, query,
		s.BranchID, s.SlotDate, s.StartTime, s.EndTime, s.MaxCapacity, s.BookedCount,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if noRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (q *txQueries) SetSlotBookedCount(ctx context.Context, slotID int64, count int) error {
	const query = `UPDATE slots SET booked_count = $2, updated_at = now() WHERE id = $1`
	_, err := q.tx.Exec(ctx, query, slotID, count)
	return err
}
