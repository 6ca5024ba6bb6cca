package actors

import (
	"context"
)

// RepositoryPort defines data access methods for actors.
type RepositoryPort interface {
	ListActors(ctx context.Context) ([]Actor, error)
	GetActor(ctx context.Context, id int64) (Actor, error)
	CreateActor(ctx context.Context, displayName string, branchID *int64) (Actor, error)
}
