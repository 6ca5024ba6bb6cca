package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheTally map[string]int

func (c cacheTally) ObserveResolverCache(result string) { c[result]++ }

func newCacheFixture(t *testing.T) (*fixture, *miniredis.Miniredis, *countingResolver, *CachedResolver, cacheTally) {
	t.Helper()
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	counter := &countingResolver{next: NewResolver(f.repo)}
	tally := cacheTally{}
	cached := NewCachedResolver(counter, client, time.Minute, nil, tally)
	f.svc = NewService(f.repo, cached, nil).WithInvalidator(cached)
	return f, mr, counter, cached, tally
}

func TestCachedResolverHitsAfterWarmup(t *testing.T) {
	f, _, counter, cached, tally := newCacheFixture(t)
	ctx := context.Background()
	role := f.role(t, "editor", "news.view")
	require.NoError(t, f.svc.AssignRole(ctx, 1, role.ID))

	for range 3 {
		set, err := cached.Resolve(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, f.ids("news.view"), set.IDs())
	}
	assert.Equal(t, 1, counter.calls)
	assert.Equal(t, 1, tally["miss"])
	assert.Equal(t, 2, tally["hit"])

	// Actor 2 has never been invalidated, so the first call seeds its epoch.
	_, err := cached.Resolve(ctx, 2)
	require.NoError(t, err)
	_, err = cached.Resolve(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, tally["bypass"])
	assert.Equal(t, 2, tally["miss"])
	assert.Equal(t, 3, counter.calls)
}

func TestCachedResolverNeverServesStaleAllow(t *testing.T) {
	f, _, _, cached, _ := newCacheFixture(t)
	ctx := context.Background()
	role := f.role(t, "editor", "news.view")
	require.NoError(t, f.svc.AssignRole(ctx, 1, role.ID))
	gate := NewGate(f.repo, cached, time.Minute, nil, nil)

	for range 3 {
		require.Equal(t, Allow, gate.AuthorizeKey(ctx, 1, "news.view"))
	}

	require.NoError(t, f.svc.RevokePermission(ctx, role.ID, f.perms["news.view"].ID))
	assert.Equal(t, Deny, gate.AuthorizeKey(ctx, 1, "news.view"), "revoke")

	require.NoError(t, f.svc.GrantPermission(ctx, role.ID, f.perms["news.view"].ID))
	require.Equal(t, Allow, gate.AuthorizeKey(ctx, 1, "news.view"))
	require.NoError(t, f.svc.UnassignRole(ctx, 1, role.ID))
	assert.Equal(t, Deny, gate.AuthorizeKey(ctx, 1, "news.view"), "unassign")

	require.NoError(t, f.svc.AssignRole(ctx, 1, role.ID))
	require.Equal(t, Allow, gate.AuthorizeKey(ctx, 1, "news.view"))
	_, err := f.svc.SetRoleActive(ctx, role.ID, false)
	require.NoError(t, err)
	assert.Equal(t, Deny, gate.AuthorizeKey(ctx, 1, "news.view"), "deactivate")
}

func TestCachedResolverBypassesWhenRedisIsDown(t *testing.T) {
	f, mr, counter, cached, tally := newCacheFixture(t)
	ctx := context.Background()
	role := f.role(t, "editor", "news.view")
	require.NoError(t, f.svc.AssignRole(ctx, 1, role.ID))

	mr.Close()
	for range 2 {
		set, err := cached.Resolve(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, f.ids("news.view"), set.IDs())
	}
	assert.Equal(t, 2, counter.calls)
	assert.Equal(t, 2, tally["bypass"])

	require.Error(t, cached.InvalidateAll(ctx))
	require.Error(t, f.svc.RevokePermission(ctx, role.ID, f.perms["news.view"].ID))
}

func TestCachedResolverDisabledPassesThrough(t *testing.T) {
	f := newFixture(t)
	counter := &countingResolver{next: NewResolver(f.repo)}
	cached := NewCachedResolver(counter, nil, time.Minute, nil, nil)

	_, err := cached.Resolve(context.Background(), 1)
	require.NoError(t, err)
	_, err = cached.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, counter.calls)
	require.NoError(t, cached.InvalidateActor(context.Background(), 1))
}
