package rbac

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const keyMemoSize = 512

// DecisionObserver records enforcement outcomes.
type DecisionObserver interface {
	ObserveAuthzDecision(decision Decision)
}

// Authorizer answers permission checks for one actor.
type Authorizer interface {
	Decide(ctx context.Context, key PermissionKey) Decision
}

// Gate is the enforcement point. Every failure path yields Deny: an unknown
// key, a non-positive actor id, a storage error or a cancelled context.
type Gate struct {
	catalog  CatalogReader
	resolver PermissionResolver
	keys     *expirable.LRU[PermissionKey, int64]
	logger   *slog.Logger
	observer DecisionObserver
}

// NewGate builds a Gate. keyTTL bounds how long key to id lookups are
// memoised; zero disables the memo. A stale id is harmless because the id
// of a deleted permission cannot appear in any resolved set.
func NewGate(catalog CatalogReader, resolver PermissionResolver, keyTTL time.Duration, logger *slog.Logger, observer DecisionObserver) *Gate {
	g := &Gate{catalog: catalog, resolver: resolver, logger: logger, observer: observer}
	if keyTTL > 0 {
		g.keys = expirable.NewLRU[PermissionKey, int64](keyMemoSize, nil, keyTTL)
	}
	return g
}

// Authorize decides whether actorID holds key right now.
func (g *Gate) Authorize(ctx context.Context, actorID int64, key PermissionKey) Decision {
	return g.For(ctx, actorID).Decide(ctx, key)
}

// AuthorizeKey parses raw and authorizes it. Malformed keys are denied.
func (g *Gate) AuthorizeKey(ctx context.Context, actorID int64, raw string) Decision {
	key, err := ParsePermissionKey(raw)
	if err != nil {
		return g.record(Deny)
	}
	return g.Authorize(ctx, actorID, key)
}

// For resolves the actor once and returns an Authorizer over that snapshot.
// Use it when many checks share a request, such as filtering a list.
func (g *Gate) For(ctx context.Context, actorID int64) *Snapshot {
	snap := &Snapshot{gate: g, actorID: actorID}
	if actorID <= 0 {
		return snap
	}
	set, err := g.resolver.Resolve(ctx, actorID)
	if err != nil {
		g.warn("rbac resolve failed, denying", actorID, err)
		return snap
	}
	snap.granted = set
	return snap
}

var _ KeyMemo = (*Gate)(nil)

// Forget drops the memoised id of key.
func (g *Gate) Forget(key PermissionKey) {
	if g.keys != nil {
		g.keys.Remove(key)
	}
}

func (g *Gate) lookup(ctx context.Context, key PermissionKey) (int64, error) {
	if g.keys != nil {
		if id, ok := g.keys.Get(key); ok {
			return id, nil
		}
	}
	perm, err := g.catalog.PermissionByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	if g.keys != nil {
		g.keys.Add(key, perm.ID)
	}
	return perm.ID, nil
}

func (g *Gate) record(d Decision) Decision {
	if g.observer != nil {
		g.observer.ObserveAuthzDecision(d)
	}
	return d
}

func (g *Gate) warn(msg string, actorID int64, err error) {
	if g.logger != nil {
		g.logger.Warn(msg, slog.Int64("actor_id", actorID), slog.Any("error", err))
	}
}

// Snapshot is an Authorizer bound to one resolution of an actor. A snapshot
// whose resolution failed denies everything.
type Snapshot struct {
	gate    *Gate
	actorID int64
	granted PermissionSet
}

var _ Authorizer = (*Snapshot)(nil)

// ActorID returns the actor the snapshot was taken for.
func (s *Snapshot) ActorID() int64 { return s.actorID }

// Decide checks key against the snapshot.
func (s *Snapshot) Decide(ctx context.Context, key PermissionKey) Decision {
	if len(s.granted) == 0 {
		return s.gate.record(Deny)
	}
	id, err := s.gate.lookup(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrPermissionNotFound) {
			s.gate.warn("rbac permission lookup failed, denying", s.actorID, err)
		}
		return s.gate.record(Deny)
	}
	if s.granted.Has(id) {
		return s.gate.record(Allow)
	}
	return s.gate.record(Deny)
}

// Allows is Decide reduced to a bool.
func (s *Snapshot) Allows(ctx context.Context, key PermissionKey) bool {
	return s.Decide(ctx, key) == Allow
}

// Permissions returns the granted permission ids in ascending order.
func (s *Snapshot) Permissions() []int64 {
	return s.granted.IDs()
}
