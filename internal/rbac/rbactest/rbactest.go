// Package rbactest builds in-memory authorization fixtures for handler tests.
package rbactest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/rbac"
)

// Fixture is an in-memory RBAC stack.
type Fixture struct {
	Repo    *rbac.MemoryRepository
	Service *rbac.Service
	Gate    *rbac.Gate
}

// New seeds the default catalog into a fresh memory repository.
func New(t testing.TB) *Fixture {
	t.Helper()
	repo := rbac.NewMemoryRepository()
	svc := rbac.NewService(repo, nil, nil)
	catalog, err := rbac.DefaultCatalog()
	require.NoError(t, err)
	// Bootstrap roles are left out so tests start from no grants.
	catalog.Roles = nil
	_, err = svc.Seed(context.Background(), catalog)
	require.NoError(t, err)
	gate := rbac.NewGate(repo, rbac.NewResolver(repo), 0, nil, nil)
	svc.WithKeyMemo(gate)
	return &Fixture{Repo: repo, Service: svc, Gate: gate}
}

// Middleware returns route middleware backed by the fixture's gate.
func (f *Fixture) Middleware() rbac.Middleware {
	return rbac.Middleware{Gate: f.Gate}
}

// Grant gives actorID a dedicated role holding keys.
func (f *Fixture) Grant(t testing.TB, actorID int64, keys ...string) rbac.Role {
	t.Helper()
	ctx := context.Background()
	role, err := f.Service.CreateRole(ctx, fmt.Sprintf("actor-%d-%d", actorID, len(f.Repo.UserRoles())), "")
	require.NoError(t, err)
	for _, raw := range keys {
		perm, err := f.Repo.PermissionByKey(ctx, rbac.MustParsePermissionKey(raw))
		require.NoError(t, err, raw)
		require.NoError(t, f.Service.GrantPermission(ctx, role.ID, perm.ID))
	}
	require.NoError(t, f.Service.AssignRole(ctx, actorID, role.ID))
	return role
}
