package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alumnihub/alumnihub/internal/platform/db"
)

// PostgresRepository provides PostgreSQL backed persistence.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a repository over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ Repository = (*PostgresRepository)(nil)

const permissionColumns = `id, module, action, description, created_at`

const roleColumns = `id, name, description, is_active, created_at, updated_at`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Module, &p.Action, &p.Description, &p.CreatedAt)
	return p, err
}

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func collectPermissions(rows pgx.Rows, err error) ([]Permission, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		return scanPermission(row)
	})
}

func collectRoles(rows pgx.Rows, err error) ([]Role, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Role, error) {
		return scanRole(row)
	})
}

func collectIDs(rows pgx.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// RolesForActor returns every role linked to the actor.
func (r *PostgresRepository) RolesForActor(ctx context.Context, actorID int64) ([]Role, error) {
	roles, err := collectRoles(r.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.is_active, r.created_at, r.updated_at
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.actor_id = $1
		ORDER BY r.id`, actorID))
	if err != nil {
		return nil, fmt.Errorf("rbac: roles for actor: %w", err)
	}
	return roles, nil
}

// PermissionIDsForRoles returns the distinct permission ids granted to roleIDs.
func (r *PostgresRepository) PermissionIDsForRoles(ctx context.Context, roleIDs []int64) ([]int64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	ids, err := collectIDs(r.pool.Query(ctx, `
		SELECT DISTINCT permission_id FROM role_permissions
		WHERE role_id = ANY($1)
		ORDER BY permission_id`, roleIDs))
	if err != nil {
		return nil, fmt.Errorf("rbac: permissions for roles: %w", err)
	}
	return ids, nil
}

// PermissionByKey looks up a permission by its exact module and action.
func (r *PostgresRepository) PermissionByKey(ctx context.Context, key PermissionKey) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE module = $1 AND action = $2`, key.Module, key.Action))
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, ErrPermissionNotFound
	}
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: permission by key: %w", err)
	}
	return p, nil
}

// ListPermissions returns the catalog ordered by module then action.
func (r *PostgresRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	perms, err := collectPermissions(r.pool.Query(ctx,
		`SELECT `+permissionColumns+` FROM permissions ORDER BY module, action`))
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return perms, nil
}

// PermissionsByModule returns every permission of one module.
func (r *PostgresRepository) PermissionsByModule(ctx context.Context, module string) ([]Permission, error) {
	perms, err := collectPermissions(r.pool.Query(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE module = $1 ORDER BY action`, module))
	if err != nil {
		return nil, fmt.Errorf("rbac: permissions by module: %w", err)
	}
	return perms, nil
}

// GetPermission fetches a permission by id.
func (r *PostgresRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, ErrPermissionNotFound
	}
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: get permission: %w", err)
	}
	return p, nil
}

// EnsurePermission upserts a permission ensuring description is stored.
func (r *PostgresRepository) EnsurePermission(ctx context.Context, key PermissionKey, description string) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, `
		INSERT INTO permissions (module, action, description)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT uq_permissions_key DO UPDATE SET description = EXCLUDED.description
		RETURNING `+permissionColumns, key.Module, key.Action, description))
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: ensure permission: %w", err)
	}
	return p, nil
}

// DeletePermission removes a permission; role_permissions rows cascade.
func (r *PostgresRepository) DeletePermission(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("rbac: delete permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPermissionNotFound
	}
	return nil
}

// ListRoles returns all roles ordered by name.
func (r *PostgresRepository) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := collectRoles(r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`))
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	return roles, nil
}

// GetRole fetches a role by ID.
func (r *PostgresRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	if err != nil {
		return Role{}, fmt.Errorf("rbac: get role: %w", err)
	}
	return role, nil
}

// CreateRole inserts a new, active role.
func (r *PostgresRepository) CreateRole(ctx context.Context, name, description string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description) VALUES ($1, $2)
		RETURNING `+roleColumns, name, description))
	if db.IsUniqueViolation(err, "uq_roles_name") {
		return Role{}, ErrRoleNameTaken
	}
	if err != nil {
		return Role{}, fmt.Errorf("rbac: create role: %w", err)
	}
	return role, nil
}

// UpdateRole applies the non-nil fields of update.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id int64, update RoleUpdate) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		UPDATE roles SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			is_active   = COALESCE($4, is_active),
			updated_at  = NOW()
		WHERE id = $1
		RETURNING `+roleColumns, id, update.Name, update.Description, update.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	if db.IsUniqueViolation(err, "uq_roles_name") {
		return Role{}, ErrRoleNameTaken
	}
	if err != nil {
		return Role{}, fmt.Errorf("rbac: update role: %w", err)
	}
	return role, nil
}

// DeleteRole removes a role; its role_permissions and user_roles rows cascade.
func (r *PostgresRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("rbac: delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// RolePermissionIDs lists the permission ids linked to roleID.
func (r *PostgresRepository) RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	ids, err := collectIDs(r.pool.Query(ctx,
		`SELECT permission_id FROM role_permissions WHERE role_id = $1 ORDER BY permission_id`, roleID))
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	return ids, nil
}

// GrantPermissions links permissions to a role in one statement.
func (r *PostgresRepository) GrantPermissions(ctx context.Context, roleID int64, permissionIDs ...int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, roleID, permissionIDs)
	if db.IsForeignKeyViolation(err, "") {
		return fmt.Errorf("rbac: grant references missing role or permission: %w", ErrPermissionNotFound)
	}
	if err != nil {
		return fmt.Errorf("rbac: grant permissions: %w", err)
	}
	return nil
}

// RevokePermissions unlinks permissions from a role in one statement.
func (r *PostgresRepository) RevokePermissions(ctx context.Context, roleID int64, permissionIDs ...int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = ANY($2)`, roleID, permissionIDs)
	if err != nil {
		return fmt.Errorf("rbac: revoke permissions: %w", err)
	}
	return nil
}

// AssignRole links an actor to a role.
func (r *PostgresRepository) AssignRole(ctx context.Context, actorID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (actor_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, actorID, roleID)
	if db.IsForeignKeyViolation(err, "fk_user_roles_actor") {
		return fmt.Errorf("rbac: assign role to actor %d: %w", actorID, ErrActorNotFound)
	}
	if db.IsForeignKeyViolation(err, "") {
		return fmt.Errorf("rbac: assign role %d: %w", roleID, ErrRoleNotFound)
	}
	if err != nil {
		return fmt.Errorf("rbac: assign role: %w", err)
	}
	return nil
}

// UnassignRole removes the actor's link to a role.
func (r *PostgresRepository) UnassignRole(ctx context.Context, actorID, roleID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE actor_id = $1 AND role_id = $2`, actorID, roleID); err != nil {
		return fmt.Errorf("rbac: unassign role: %w", err)
	}
	return nil
}
