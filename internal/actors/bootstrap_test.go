package actors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
	"github.com/alumnihub/alumnihub/internal/rbac"
)

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := NewService(NewMemoryRepository(), nil, nil)
	access := rbac.NewService(rbac.NewMemoryRepository(), nil, nil).WithActors(dir)
	catalog, err := rbac.DefaultCatalog()
	require.NoError(t, err)
	_, err = access.Seed(ctx, catalog)
	require.NoError(t, err)

	first, err := dir.Bootstrap(ctx, access, " Sekretariat ", "superadmin")
	require.NoError(t, err)
	second, err := dir.Bootstrap(ctx, access, "Sekretariat", "superadmin")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := dir.ListActors(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	roles, err := access.ActorRoles(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "superadmin", roles[0].Name)

	perms, err := access.EffectivePermissions(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, perms, len(mustKeys(t, catalog)))
}

func TestBootstrapUnknownRole(t *testing.T) {
	ctx := context.Background()
	dir := NewService(NewMemoryRepository(), nil, nil)
	access := rbac.NewService(rbac.NewMemoryRepository(), nil, nil)

	_, err := dir.Bootstrap(ctx, access, "Sekretariat", "superadmin")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func mustKeys(t *testing.T, c rbac.Catalog) []rbac.PermissionKey {
	t.Helper()
	keys, err := c.Keys()
	require.NoError(t, err)
	return keys
}
