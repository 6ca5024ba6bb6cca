package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alumnihub/alumnihub/internal/tenancy"
)

// PostgresRepository provides PostgreSQL backed persistence.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a repository over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ Repository = (*PostgresRepository)(nil)

const recordColumns = `id, kind, title, body, author_id, visibility_mode, visibility_branches, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r    Record
		kind string
		mode string
	)
	err := row.Scan(&r.ID, &kind, &r.Title, &r.Body, &r.AuthorID, &mode, &r.Visibility.Targets, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	r.Kind = Kind(kind)
	r.Visibility.Mode = tenancy.Mode(mode)
	r.Visibility = r.Visibility.Normalize()
	return r, nil
}

func (p *PostgresRepository) Create(ctx context.Context, r Record) (Record, error) {
	targets := r.Visibility.Targets
	if targets == nil {
		targets = []int64{}
	}
	created, err := scanRecord(p.pool.QueryRow(ctx, `
		INSERT INTO content_records (kind, title, body, author_id, visibility_mode, visibility_branches)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+recordColumns,
		string(r.Kind), r.Title, r.Body, r.AuthorID, string(r.Visibility.Mode), targets))
	if err != nil {
		return Record{}, fmt.Errorf("content: create: %w", err)
	}
	return created, nil
}

func (p *PostgresRepository) Get(ctx context.Context, id int64) (Record, error) {
	r, err := scanRecord(p.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM content_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("content: get: %w", err)
	}
	return r, nil
}

func (p *PostgresRepository) List(ctx context.Context, kind Kind) ([]Record, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM content_records
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC, id DESC`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("content: list: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("content: list: %w", err)
	}
	return records, nil
}

func (p *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM content_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("content: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
