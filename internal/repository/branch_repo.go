package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
)

type BranchRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Branch, error)
	ListActive(ctx context.Context) ([]domain.Branch, error)
}

type branchRepository struct {
	pool *pgxpool.Pool
}

func NewBranchRepository(pool *pgxpool.Pool) BranchRepository {
	return &branchRepository{pool: pool}
}

const branchCols = `id, name, city, address, is_active, created_at, updated_at`

func (r *branchRepository) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	const q = `SELECT ` + branchCols + ` FROM branches WHERE id = $1 AND deleted = false`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b domain.Branch
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.Name, &b.City, &b.Address, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *branchRepository) ListActive(ctx context.Context) ([]domain.Branch, error) {
	const q = `SELECT ` + branchCols + ` FROM branches
		WHERE is_active = true AND deleted = false
		ORDER BY city, name`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(
			&b.ID, &b.Name, &b.City, &b.Address, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

var _ BranchRepository = (*branchRepository)(nil)
