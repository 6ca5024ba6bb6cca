package content

import "context"

// Repository is the persistence port for content records.
type Repository interface {
	Create(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	// List returns records of kind, or of every kind when kind is empty,
	// newest first.
	List(ctx context.Context, kind Kind) ([]Record, error)
	Delete(ctx context.Context, id int64) error
}
