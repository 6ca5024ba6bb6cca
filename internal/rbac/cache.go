package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	globalEpochKey = "rbac:epoch"
	actorEpochKey  = "rbac:actor:%d:epoch"
	resolvedKey    = "rbac:perms:%d:%s:%s"
)

// Invalidator is notified after every assignment graph mutation.
type Invalidator interface {
	// InvalidateActor drops cached results for one actor (assign/unassign).
	InvalidateActor(ctx context.Context, actorID int64) error
	// InvalidateAll drops every cached result (role or catalog changes).
	InvalidateAll(ctx context.Context) error
}

// CacheObserver records cache outcomes ("hit", "miss", "bypass").
type CacheObserver interface {
	ObserveResolverCache(result string)
}

// CachedResolver memoises resolution in Redis. Entries are keyed by a
// global epoch and a per-actor epoch; invalidation replaces an epoch with a
// fresh random value so stale entries become unreachable and expire on their
// own. Any Redis failure falls through to a fresh resolve, never to a cached
// answer.
type CachedResolver struct {
	next     PermissionResolver
	client   *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
	observer CacheObserver
	group    singleflight.Group
}

// NewCachedResolver wraps next with a Redis cache of the given TTL.
func NewCachedResolver(next PermissionResolver, client *redis.Client, ttl time.Duration, logger *slog.Logger, observer CacheObserver) *CachedResolver {
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: logger, observer: observer}
}

var (
	_ PermissionResolver = (*CachedResolver)(nil)
	_ Invalidator        = (*CachedResolver)(nil)
)

// Resolve returns the cached set when the current epochs have one.
func (c *CachedResolver) Resolve(ctx context.Context, actorID int64) (PermissionSet, error) {
	if c == nil || c.client == nil || c.ttl <= 0 || actorID <= 0 {
		return c.next.Resolve(ctx, actorID)
	}
	global, actor, ok := c.epochs(ctx, actorID)
	if !ok {
		c.observe("bypass")
		return c.next.Resolve(ctx, actorID)
	}
	key := fmt.Sprintf(resolvedKey, actorID, global, actor)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var ids []int64
		if jsonErr := json.Unmarshal(payload, &ids); jsonErr == nil {
			c.observe("hit")
			return NewPermissionSet(ids...), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.warn("rbac cache get", err)
		c.observe("bypass")
		return c.next.Resolve(ctx, actorID)
	}

	c.observe("miss")
	ch := c.group.DoChan(key, func() (any, error) {
		set, err := c.next.Resolve(ctx, actorID)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(set.IDs())
		if err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.warn("rbac cache set", err)
			}
		}
		return set, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Shared results are handed to several callers; give each its own copy.
		return NewPermissionSet(res.Val.(PermissionSet).IDs()...), nil
	}
}

// epochs reads both epochs. A missing epoch is seeded and the call that
// seeds it bypasses the cache.
func (c *CachedResolver) epochs(ctx context.Context, actorID int64) (string, string, bool) {
	actorKey := fmt.Sprintf(actorEpochKey, actorID)
	vals, err := c.client.MGet(ctx, globalEpochKey, actorKey).Result()
	if err != nil {
		c.warn("rbac cache epochs", err)
		return "", "", false
	}
	global, gok := vals[0].(string)
	actor, aok := vals[1].(string)
	if gok && aok {
		return global, actor, true
	}
	seed := uuid.NewString()
	pipe := c.client.Pipeline()
	if !gok {
		pipe.SetNX(ctx, globalEpochKey, seed, 0)
	}
	if !aok {
		pipe.SetNX(ctx, actorKey, seed, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.warn("rbac cache seed epochs", err)
	}
	return "", "", false
}

// InvalidateActor rotates the actor's epoch.
func (c *CachedResolver) InvalidateActor(ctx context.Context, actorID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, fmt.Sprintf(actorEpochKey, actorID), uuid.NewString(), 0).Err(); err != nil {
		return fmt.Errorf("rbac: invalidate actor %d: %w", actorID, err)
	}
	return nil
}

// InvalidateAll rotates the global epoch.
func (c *CachedResolver) InvalidateAll(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, globalEpochKey, uuid.NewString(), 0).Err(); err != nil {
		return fmt.Errorf("rbac: invalidate all: %w", err)
	}
	return nil
}

func (c *CachedResolver) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveResolverCache(result)
	}
}

func (c *CachedResolver) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.Any("error", err))
	}
}
