package rbac

import (
	"fmt"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
)

// Error kinds surfaced by the administration API. All wrap the httpx
// sentinels so transport code can map them with errors.Is.
var (
	ErrRoleNotFound       = fmt.Errorf("rbac: role %w", httpx.ErrNotFound)
	ErrPermissionNotFound = fmt.Errorf("rbac: permission %w", httpx.ErrNotFound)
	ErrActorNotFound      = fmt.Errorf("rbac: actor %w", httpx.ErrNotFound)
	ErrRoleNameTaken      = fmt.Errorf("rbac: role name already in use: %w", httpx.ErrConflict)
	ErrPermissionExists   = fmt.Errorf("rbac: permission key already in catalog: %w", httpx.ErrConflict)
)
