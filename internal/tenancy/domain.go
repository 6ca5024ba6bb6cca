// Package tenancy decides whether a content record is visible to an actor
// given the organisation's branch structure. It knows nothing about
// permissions; callers combine it with the rbac Gate.
package tenancy

import (
	"fmt"
	"slices"
)

// ScopeKind distinguishes central administrators from branch administrators.
type ScopeKind string

const (
	ScopeCentral ScopeKind = "CENTRAL"
	ScopeBranch  ScopeKind = "BRANCH"
)

// Scope is an actor's organisational scope. The zero value is invalid and is
// treated as out of scope everywhere.
type Scope struct {
	Kind     ScopeKind `json:"kind"`
	BranchID int64     `json:"branch_id,omitempty"`
}

// Central returns the scope that sees every branch.
func Central() Scope { return Scope{Kind: ScopeCentral} }

// Branch returns a scope bound to one branch.
func Branch(id int64) Scope { return Scope{Kind: ScopeBranch, BranchID: id} }

// IsCentral reports whether s is the central scope.
func (s Scope) IsCentral() bool { return s.Kind == ScopeCentral }

// Valid reports whether s is a well-formed scope.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeCentral:
		return s.BranchID == 0
	case ScopeBranch:
		return s.BranchID > 0
	default:
		return false
	}
}

func (s Scope) String() string {
	if s.Kind == ScopeBranch {
		return fmt.Sprintf("BRANCH(%d)", s.BranchID)
	}
	return string(s.Kind)
}

// Mode selects how a VisibilityPolicy targets branches.
type Mode string

const (
	AllBranches      Mode = "ALL_BRANCHES"
	SpecificBranches Mode = "SPECIFIC_BRANCHES"
)

// VisibilityPolicy is embedded on every scoped content record.
type VisibilityPolicy struct {
	Mode    Mode    `json:"mode"`
	Targets []int64 `json:"targets,omitempty"`
}

// AllBranchesPolicy returns a policy visible to every branch.
func AllBranchesPolicy() VisibilityPolicy {
	return VisibilityPolicy{Mode: AllBranches}
}

// SpecificBranchesPolicy builds and validates a policy for the given branches.
func SpecificBranchesPolicy(branchIDs ...int64) (VisibilityPolicy, error) {
	p := VisibilityPolicy{Mode: SpecificBranches, Targets: branchIDs}.Normalize()
	if err := p.Validate(); err != nil {
		return VisibilityPolicy{}, err
	}
	return p, nil
}

// Normalize returns a copy with targets sorted and deduplicated.
func (p VisibilityPolicy) Normalize() VisibilityPolicy {
	if len(p.Targets) == 0 {
		p.Targets = nil
		return p
	}
	targets := slices.Clone(p.Targets)
	slices.Sort(targets)
	p.Targets = slices.Compact(targets)
	return p
}

// Targeting reports whether branchID is one of the policy's explicit targets.
func (p VisibilityPolicy) Targeting(branchID int64) bool {
	return slices.Contains(p.Targets, branchID)
}
