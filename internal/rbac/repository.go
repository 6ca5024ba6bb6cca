package rbac

import "context"

// GraphReader is the read side of the assignment graph used by the Resolver.
type GraphReader interface {
	// RolesForActor returns every role linked to the actor, active or not.
	RolesForActor(ctx context.Context, actorID int64) ([]Role, error)
	// PermissionIDsForRoles returns the permission ids linked to any of the roles.
	PermissionIDsForRoles(ctx context.Context, roleIDs []int64) ([]int64, error)
}

// CatalogReader resolves permission keys to catalog entries.
type CatalogReader interface {
	PermissionByKey(ctx context.Context, key PermissionKey) (Permission, error)
}

// Repository is the persistence port for the permission catalog, the role
// store and the assignment graph. Implementations enforce referential
// integrity: edges must reference existing roles and permissions, and
// deleting a role or permission removes its edges.
type Repository interface {
	GraphReader
	CatalogReader

	ListPermissions(ctx context.Context) ([]Permission, error)
	PermissionsByModule(ctx context.Context, module string) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	// EnsurePermission inserts the key or refreshes its description.
	EnsurePermission(ctx context.Context, key PermissionKey, description string) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, update RoleUpdate) (Role, error)
	DeleteRole(ctx context.Context, id int64) error

	RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
	// GrantPermissions and RevokePermissions are no-ops for edges already in
	// the requested state.
	GrantPermissions(ctx context.Context, roleID int64, permissionIDs ...int64) error
	RevokePermissions(ctx context.Context, roleID int64, permissionIDs ...int64) error

	AssignRole(ctx context.Context, actorID, roleID int64) error
	UnassignRole(ctx context.Context, actorID, roleID int64) error
}
