package shared

// Administration permissions checked by the HTTP surface.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"

	PermBranchesView = "branches.view"
	PermBranchesEdit = "branches.edit"
)

// CoreScopes lists all administration permissions.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermPermissionsEdit,
		PermBranchesView,
		PermBranchesEdit,
	}
}
