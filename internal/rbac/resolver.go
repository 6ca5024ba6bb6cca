package rbac

import (
	"context"
	"fmt"
)

// PermissionResolver computes an actor's effective permission set.
type PermissionResolver interface {
	Resolve(ctx context.Context, actorID int64) (PermissionSet, error)
}

// Resolver walks the assignment graph on every call.
type Resolver struct {
	graph GraphReader
}

// NewResolver constructs a Resolver over graph.
func NewResolver(graph GraphReader) *Resolver {
	return &Resolver{graph: graph}
}

// Resolve returns the union of the permissions of the actor's active roles.
// Unknown actors and actors without roles resolve to the empty set; only
// storage failures are errors.
func (r *Resolver) Resolve(ctx context.Context, actorID int64) (PermissionSet, error) {
	if actorID <= 0 {
		return PermissionSet{}, nil
	}
	roles, err := r.graph.RolesForActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve roles: %w", err)
	}
	active := make([]int64, 0, len(roles))
	for _, role := range roles {
		if role.IsActive {
			active = append(active, role.ID)
		}
	}
	if len(active) == 0 {
		return PermissionSet{}, nil
	}
	ids, err := r.graph.PermissionIDsForRoles(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve permissions: %w", err)
	}
	return NewPermissionSet(ids...), nil
}
