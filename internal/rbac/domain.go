package rbac

import (
	"slices"
	"time"
)

// Permission is an atomic (module, action) capability.
type Permission struct {
	ID          int64     `json:"id"`
	Module      string    `json:"module"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key returns the identity of the permission in the catalog.
func (p Permission) Key() PermissionKey {
	return PermissionKey{Module: p.Module, Action: p.Action}
}

// Role is a named, independently activatable bundle of permissions.
// An inactive role contributes nothing to resolution even while linked.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RolePermission ties a permission to a role.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// UserRole links an actor to a role.
type UserRole struct {
	ActorID   int64
	RoleID    int64
	CreatedAt time.Time
}

// RoleUpdate carries optional changes for a role. Nil fields are left alone.
type RoleUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// Empty reports whether the update changes nothing.
func (u RoleUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.IsActive == nil
}

// PermissionSet is an actor's effective permission set keyed by permission id.
type PermissionSet map[int64]struct{}

// NewPermissionSet builds a set, collapsing duplicates.
func NewPermissionSet(ids ...int64) PermissionSet {
	set := make(PermissionSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership. A nil set contains nothing.
func (s PermissionSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s PermissionSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Decision is the Gate's verdict. The zero value is Deny.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "Allow"
	}
	return "Deny"
}

// MarshalText renders the decision for JSON responses.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
