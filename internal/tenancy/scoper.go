package tenancy

// InScope decides whether a record with policy p is visible to an actor with scope s.
//
//	CENTRAL    any policy              -> true
//	BRANCH(b)  ALL_BRANCHES            -> true
//	BRANCH(b)  SPECIFIC_BRANCHES(ts)   -> b in ts
//
// Malformed scopes and unknown modes are out of scope.
func InScope(s Scope, p VisibilityPolicy) bool {
	switch s.Kind {
	case ScopeCentral:
		return true
	case ScopeBranch:
		if s.BranchID <= 0 {
			return false
		}
		switch p.Mode {
		case AllBranches:
			return true
		case SpecificBranches:
			return p.Targeting(s.BranchID)
		}
	}
	return false
}

// Filter keeps the items visible to s. It is used for every listing,
// central actors included, so the filtering path has no special case.
func Filter[T any](s Scope, items []T, policyOf func(T) VisibilityPolicy) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if InScope(s, policyOf(item)) {
			out = append(out, item)
		}
	}
	return out
}
