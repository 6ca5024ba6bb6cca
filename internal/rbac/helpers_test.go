package rbac

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo  *MemoryRepository
	svc   *Service
	perms map[string]Permission
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := NewMemoryRepository()
	f := &fixture{repo: repo, svc: NewService(repo, nil, nil), perms: make(map[string]Permission)}
	for _, raw := range []string{"news.view", "news.create", "news.delete", "events.view", "events.create", "alumni.view"} {
		key := MustParsePermissionKey(raw)
		p, err := repo.EnsurePermission(context.Background(), key, "")
		require.NoError(t, err)
		f.perms[raw] = p
	}
	return f
}

func (f *fixture) role(t *testing.T, name string, perms ...string) Role {
	t.Helper()
	ctx := context.Background()
	role, err := f.svc.CreateRole(ctx, name, "")
	require.NoError(t, err)
	for _, p := range perms {
		require.NoError(t, f.svc.GrantPermission(ctx, role.ID, f.perms[p].ID))
	}
	return role
}

func (f *fixture) ids(keys ...string) []int64 {
	set := NewPermissionSet()
	for _, k := range keys {
		set[f.perms[k].ID] = struct{}{}
	}
	return set.IDs()
}

type failingGraph struct {
	err error
}

func (g failingGraph) RolesForActor(context.Context, int64) ([]Role, error) {
	return nil, g.err
}

func (g failingGraph) PermissionIDsForRoles(context.Context, []int64) ([]int64, error) {
	return nil, g.err
}

func (g failingGraph) PermissionByKey(context.Context, PermissionKey) (Permission, error) {
	return Permission{}, g.err
}

var errStoreDown = errors.New("store unavailable")

type countingResolver struct {
	next  PermissionResolver
	mu    sync.Mutex
	calls int
}

func (c *countingResolver) Resolve(ctx context.Context, actorID int64) (PermissionSet, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.next.Resolve(ctx, actorID)
}

type recordingInvalidator struct {
	actors []int64
	all    int
	err    error
}

func (r *recordingInvalidator) InvalidateActor(_ context.Context, actorID int64) error {
	r.actors = append(r.actors, actorID)
	return r.err
}

func (r *recordingInvalidator) InvalidateAll(context.Context) error {
	r.all++
	return r.err
}
