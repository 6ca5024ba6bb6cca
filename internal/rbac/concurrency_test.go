package rbac

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestServiceConcurrentMutationsConverge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	granted := f.role(t, "granted")
	toggled := f.role(t, "toggled")
	const workers = 32

	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			perm := f.perms["events.view"]
			if i%2 == 1 {
				perm = f.perms["events.create"]
			}
			return f.svc.GrantPermission(ctx, granted.ID, perm.ID)
		})
		g.Go(func() error {
			return f.svc.AssignRole(ctx, 7, granted.ID)
		})
		g.Go(func() error {
			_, err := f.svc.ToggleModulePermissions(ctx, toggled.ID, "news")
			return err
		})
	}
	require.NoError(t, g.Wait())

	edges := f.repo.UserRoles()
	require.Len(t, edges, 1)
	assert.Equal(t, int64(7), edges[0].ActorID)
	assert.Equal(t, granted.ID, edges[0].RoleID)

	byRole := map[int64][]int64{}
	for _, rp := range f.repo.RolePermissions() {
		byRole[rp.RoleID] = append(byRole[rp.RoleID], rp.PermissionID)
	}
	assert.ElementsMatch(t, f.ids("events.view", "events.create"), byRole[granted.ID])

	// Every toggle writes the whole module or none of it.
	news := f.ids("news.view", "news.create", "news.delete")
	held := byRole[toggled.ID]
	if len(held) > 0 {
		assert.ElementsMatch(t, news, held)
	}

	set, err := NewResolver(f.repo).Resolve(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, f.ids("events.view", "events.create"), set.IDs())
}

func TestCachedResolverConcurrentResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	counter := &countingResolver{next: NewResolver(f.repo)}
	cached := NewCachedResolver(counter, client, time.Minute, nil, nil)
	f.svc = NewService(f.repo, cached, nil).WithInvalidator(cached)

	role := f.role(t, "editor", "news.view", "events.view")
	require.NoError(t, f.svc.AssignRole(ctx, 1, role.ID))
	want := f.ids("news.view", "events.view")

	const workers = 64
	sets := make([]PermissionSet, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := cached.Resolve(ctx, 1)
			assert.NoError(t, err)
			sets[i] = set
		}()
	}
	wg.Wait()

	for i, set := range sets {
		require.NotNil(t, set, "worker %d", i)
		assert.Equal(t, want, set.IDs(), "worker %d", i)
	}
	// Callers sharing one flight must not alias each other's set.
	delete(sets[0], f.perms["news.view"].ID)
	assert.True(t, sets[1].Has(f.perms["news.view"].ID))

	counter.mu.Lock()
	calls := counter.calls
	counter.mu.Unlock()
	assert.LessOrEqual(t, calls, workers)

	before := calls
	again, err := cached.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, again.IDs())
	counter.mu.Lock()
	assert.Equal(t, before, counter.calls, "warm cache served the repeat call")
	counter.mu.Unlock()
}
