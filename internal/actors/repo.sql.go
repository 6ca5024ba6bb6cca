package actors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alumnihub/alumnihub/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// ListActors returns all actors.
func (r *Repository) ListActors(ctx context.Context) ([]Actor, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, display_name, branch_id, created_at FROM actors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("actors: list: %w", err)
	}
	actors, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Actor])
	if err != nil {
		return nil, fmt.Errorf("actors: list: %w", err)
	}
	return actors, nil
}

// GetActor fetches one actor.
func (r *Repository) GetActor(ctx context.Context, id int64) (Actor, error) {
	var a Actor
	err := r.pool.QueryRow(ctx, `SELECT id, display_name, branch_id, created_at FROM actors WHERE id = $1`, id).
		Scan(&a.ID, &a.DisplayName, &a.BranchID, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Actor{}, ErrNotFound
	}
	if err != nil {
		return Actor{}, fmt.Errorf("actors: get: %w", err)
	}
	return a, nil
}

// CreateActor mirrors an identity into the directory.
func (r *Repository) CreateActor(ctx context.Context, displayName string, branchID *int64) (Actor, error) {
	a := Actor{DisplayName: displayName, BranchID: branchID}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO actors (display_name, branch_id) VALUES ($1, $2) RETURNING id, created_at`, displayName, branchID).
		Scan(&a.ID, &a.CreatedAt)
	if db.IsForeignKeyViolation(err, "") {
		return Actor{}, fmt.Errorf("actors: unknown branch: %w", ErrUnknownBranch)
	}
	if err != nil {
		return Actor{}, fmt.Errorf("actors: create: %w", err)
	}
	return a, nil
}
