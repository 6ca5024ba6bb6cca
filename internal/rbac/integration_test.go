//go:build integration

package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/platform/db/dbtest"
)

func TestPostgresRepositoryAdministration(t *testing.T) {
	pool := dbtest.Postgres(t)
	repo := NewPostgresRepository(pool)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = svc.Seed(ctx, catalog)
	require.NoError(t, err)

	var actor int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO actors (display_name) VALUES ('ops') RETURNING id`).Scan(&actor))

	editor, err := svc.CreateRole(ctx, "editor", "")
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, "editor", "")
	require.ErrorIs(t, err, ErrRoleNameTaken)

	view, err := repo.PermissionByKey(ctx, MustParsePermissionKey("news.view"))
	require.NoError(t, err)
	require.NoError(t, svc.GrantPermission(ctx, editor.ID, view.ID))
	require.NoError(t, svc.GrantPermission(ctx, editor.ID, view.ID))
	require.NoError(t, svc.AssignRole(ctx, actor, editor.ID))
	require.NoError(t, svc.AssignRole(ctx, actor, editor.ID))
	require.ErrorIs(t, repo.AssignRole(ctx, actor+1000, editor.ID), ErrActorNotFound)
	require.ErrorIs(t, repo.AssignRole(ctx, actor, editor.ID+1000), ErrRoleNotFound)

	gate := NewGate(repo, NewResolver(repo), time.Minute, nil, nil)
	assert.Equal(t, Allow, gate.AuthorizeKey(ctx, actor, "news.view"))
	assert.Equal(t, Deny, gate.AuthorizeKey(ctx, actor, "news.delete"))

	_, err = svc.SetRoleActive(ctx, editor.ID, false)
	require.NoError(t, err)
	assert.Equal(t, Deny, gate.AuthorizeKey(ctx, actor, "news.view"))
	_, err = svc.SetRoleActive(ctx, editor.ID, true)
	require.NoError(t, err)

	res, err := svc.ToggleModulePermissions(ctx, editor.ID, "news")
	require.NoError(t, err)
	assert.True(t, res.Granted)
	detail, err := svc.GetRole(ctx, editor.ID)
	require.NoError(t, err)
	assert.Len(t, detail.PermissionIDs, 4)

	require.NoError(t, svc.DeletePermission(ctx, view.ID))
	assert.Equal(t, Deny, gate.AuthorizeKey(ctx, actor, "news.view"))

	require.NoError(t, svc.DeleteRole(ctx, editor.ID))
	roles, err := svc.ActorRoles(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, roles)
	require.ErrorIs(t, svc.DeleteRole(ctx, editor.ID), ErrRoleNotFound)
}
