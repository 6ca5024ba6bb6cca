package tenancy

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alumnihub/alumnihub/internal/platform/validate"
)

// Validate enforces the write-time policy invariants. A SPECIFIC_BRANCHES
// policy with no targets would hide the record from everyone but its author.
func (p VisibilityPolicy) Validate() error {
	switch p.Mode {
	case AllBranches:
		if len(p.Targets) > 0 {
			return validate.Field("visibility.targets", "must be empty when mode is ALL_BRANCHES")
		}
		return nil
	case SpecificBranches:
		if len(p.Targets) == 0 {
			return validate.Field("visibility.targets", "must name at least one branch when mode is SPECIFIC_BRANCHES")
		}
		for _, id := range p.Targets {
			if id <= 0 {
				return validate.Field("visibility.targets", fmt.Sprintf("invalid branch id %d", id))
			}
		}
		return nil
	default:
		return validate.Field("visibility.mode", "must be one of ALL_BRANCHES SPECIFIC_BRANCHES")
	}
}

// BranchLookup reports which of the given branch ids exist.
type BranchLookup interface {
	ExistingBranchIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// ValidateTargets checks the policy invariants and that every target branch exists.
func ValidateTargets(ctx context.Context, p VisibilityPolicy, branches BranchLookup) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Mode != SpecificBranches || branches == nil {
		return nil
	}
	existing, err := branches.ExistingBranchIDs(ctx, p.Targets)
	if err != nil {
		return fmt.Errorf("tenancy: lookup branches: %w", err)
	}
	var missing []string
	for _, id := range p.Targets {
		if !slices.Contains(existing, id) {
			missing = append(missing, fmt.Sprint(id))
		}
	}
	if len(missing) > 0 {
		return validate.Field("visibility.targets", "unknown branch "+strings.Join(missing, ", "))
	}
	return nil
}

// CanTarget reports whether an author with scope s may publish under p.
// Branch authors may publish to every branch or to their own branch only.
func CanTarget(s Scope, p VisibilityPolicy) error {
	if s.IsCentral() {
		return nil
	}
	if !s.Valid() {
		return validate.Field("visibility", "author has no organisational scope")
	}
	if p.Mode == AllBranches {
		return nil
	}
	for _, id := range p.Targets {
		if id != s.BranchID {
			return validate.Field("visibility.targets", "branch administrators may only target their own branch")
		}
	}
	return nil
}
