package actors

import (
	"fmt"
	"time"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
	"github.com/alumnihub/alumnihub/internal/platform/validate"
	"github.com/alumnihub/alumnihub/internal/tenancy"
)

// Actor is an administrative identity provisioned by the identity provider.
// A nil BranchID means the actor belongs to the central organisation.
type Actor struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	BranchID    *int64    `json:"branch_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Scope derives the actor's organisational scope.
func (a Actor) Scope() tenancy.Scope {
	if a.BranchID == nil {
		return tenancy.Central()
	}
	return tenancy.Branch(*a.BranchID)
}

// ActorView is the JSON shape of an actor including its scope.
type ActorView struct {
	Actor
	Scope string `json:"scope"`
}

func viewOf(a Actor) ActorView {
	return ActorView{Actor: a, Scope: a.Scope().String()}
}

var (
	ErrNotFound      = fmt.Errorf("actors: actor %w", httpx.ErrNotFound)
	ErrUnknownBranch = validate.Field("branch_id", "unknown branch")
)
