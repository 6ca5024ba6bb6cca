// Package content stores scoped records (articles, events, donation
// programs, marketplace listings) and serves them through the enforcement
// gate and the tenancy scoper.
package content

import (
	"fmt"
	"time"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
	"github.com/alumnihub/alumnihub/internal/rbac"
	"github.com/alumnihub/alumnihub/internal/tenancy"
)

// Kind is the type of a content record.
type Kind string

const (
	KindArticle  Kind = "article"
	KindEvent    Kind = "event"
	KindDonation Kind = "donation"
	KindListing  Kind = "listing"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindArticle, KindEvent, KindDonation, KindListing}

var kindModules = map[Kind]string{
	KindArticle:  "news",
	KindEvent:    "events",
	KindDonation: "donations",
	KindListing:  "marketplace",
}

// Module returns the permission module governing the kind.
func (k Kind) Module() (string, bool) {
	m, ok := kindModules[k]
	return m, ok
}

// Permission returns the key for action on this kind.
func (k Kind) Permission(action string) (rbac.PermissionKey, error) {
	module, ok := k.Module()
	if !ok {
		return rbac.PermissionKey{}, fmt.Errorf("content: unknown kind %q", k)
	}
	return rbac.NewPermissionKey(module, action)
}

// Record is a piece of scoped content.
type Record struct {
	ID         int64                    `json:"id"`
	Kind       Kind                     `json:"kind"`
	Title      string                   `json:"title"`
	Body       string                   `json:"body"`
	AuthorID   int64                    `json:"author_id"`
	Visibility tenancy.VisibilityPolicy `json:"visibility"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

func policyOf(r Record) tenancy.VisibilityPolicy { return r.Visibility }

var (
	ErrNotFound = fmt.Errorf("content: record %w", httpx.ErrNotFound)
	ErrDenied   = fmt.Errorf("content: %w", httpx.ErrForbidden)
)
