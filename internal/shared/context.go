package shared

import (
	"context"

	"github.com/alumnihub/alumnihub/internal/tenancy"
)

// Principal is the authenticated actor behind a request.
type Principal struct {
	ActorID int64
	Scope   tenancy.Scope
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || p.ActorID <= 0 {
		return Principal{}, false
	}
	return p, true
}
