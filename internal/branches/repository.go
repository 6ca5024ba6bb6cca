package branches

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alumnihub/alumnihub/internal/platform/db"
	"github.com/alumnihub/alumnihub/internal/shared"
)

// Repository is the persistence port for branches.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error)
	Get(ctx context.Context, id int64) (Branch, error)
	Create(ctx context.Context, name string) (Branch, error)
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a PostgreSQL backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM branches WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`, filters.Search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("branches: count: %w", err)
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = shared.DefaultLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at FROM branches
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3`, filters.Search, limit, filters.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("branches: list: %w", err)
	}
	branches, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Branch])
	if err != nil {
		return nil, 0, fmt.Errorf("branches: list: %w", err)
	}
	return branches, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	var b Branch
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM branches WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, ErrNotFound
	}
	if err != nil {
		return Branch{}, fmt.Errorf("branches: get: %w", err)
	}
	return b, nil
}

func (r *repository) Create(ctx context.Context, name string) (Branch, error) {
	b := Branch{Name: name}
	err := r.db.QueryRow(ctx, `INSERT INTO branches (name) VALUES ($1) RETURNING id, created_at`, name).
		Scan(&b.ID, &b.CreatedAt)
	if db.IsUniqueViolation(err, "uq_branches_name") {
		return Branch{}, ErrNameTaken
	}
	if err != nil {
		return Branch{}, fmt.Errorf("branches: create: %w", err)
	}
	return b, nil
}

func (r *repository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id FROM branches WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("branches: existing ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
