package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alumnihub/alumnihub/internal/platform/validate"
)

// ActorLookup answers whether an actor id exists in the identity directory.
type ActorLookup interface {
	ActorExists(ctx context.Context, actorID int64) (bool, error)
}

// Service implements the administration API over the role store, the
// permission catalog and the assignment graph.
type Service struct {
	repo        Repository
	resolver    PermissionResolver
	actors      ActorLookup
	invalidator Invalidator
	keyMemo     KeyMemo
	logger      *slog.Logger
}

// KeyMemo caches key to permission id lookups and must drop a key whenever
// the catalog entry behind it changes.
type KeyMemo interface {
	Forget(key PermissionKey)
}

// NewService constructs a Service. A nil resolver resolves straight from repo.
func NewService(repo Repository, resolver PermissionResolver, logger *slog.Logger) *Service {
	if resolver == nil {
		resolver = NewResolver(repo)
	}
	return &Service{repo: repo, resolver: resolver, logger: logger}
}

// WithActors makes assign and unassign reject unknown actors.
func (s *Service) WithActors(actors ActorLookup) *Service {
	s.actors = actors
	return s
}

// WithInvalidator registers the cache that must hear about graph changes.
func (s *Service) WithInvalidator(inv Invalidator) *Service {
	s.invalidator = inv
	return s
}

// WithKeyMemo registers the gate whose key lookups follow catalog changes.
func (s *Service) WithKeyMemo(memo KeyMemo) *Service {
	s.keyMemo = memo
	return s
}

// CreateRoleRequest is the input of CreateRole.
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=255"`
}

// UpdateRoleRequest is a partial role update. Absent fields are unchanged.
type UpdateRoleRequest struct {
	Name        *string `json:"name" validate:"omitnil,max=64"`
	Description *string `json:"description" validate:"omitnil,max=255"`
	IsActive    *bool   `json:"is_active"`
}

// RoleDetail is a role together with its granted permission ids.
type RoleDetail struct {
	Role
	PermissionIDs []int64 `json:"permission_ids"`
}

// ModuleGroup is the catalog grouped for display.
type ModuleGroup struct {
	Module      string       `json:"module"`
	Permissions []Permission `json:"permissions"`
}

// ToggleResult reports the state a module toggle converged to.
type ToggleResult struct {
	Module  string  `json:"module"`
	Granted bool    `json:"granted"`
	Changed []int64 `json:"changed"`
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role and the permissions granted to it.
func (s *Service) GetRole(ctx context.Context, id int64) (RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	ids, err := s.repo.RolePermissionIDs(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	return RoleDetail{Role: role, PermissionIDs: ids}, nil
}

// CreateRole inserts a new, active role. Names are unique.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	req := CreateRoleRequest{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	if err := validate.Struct(req); err != nil {
		return Role{}, err
	}
	role, err := s.repo.CreateRole(ctx, req.Name, req.Description)
	if err != nil {
		return Role{}, err
	}
	s.info("role created", slog.Int64("role_id", role.ID), slog.String("name", role.Name))
	return role, nil
}

// UpdateRole applies a partial update. An empty update returns the role as is.
func (s *Service) UpdateRole(ctx context.Context, id int64, req UpdateRoleRequest) (Role, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return Role{}, validate.Field("name", "is required")
		}
		req.Name = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}
	if err := validate.Struct(req); err != nil {
		return Role{}, err
	}
	update := RoleUpdate{Name: req.Name, Description: req.Description, IsActive: req.IsActive}
	if update.Empty() {
		return s.repo.GetRole(ctx, id)
	}
	role, err := s.repo.UpdateRole(ctx, id, update)
	if err != nil {
		return Role{}, err
	}
	if update.IsActive != nil {
		if err := s.invalidateAll(ctx); err != nil {
			return Role{}, err
		}
	}
	return role, nil
}

// SetRoleActive flips the role's flag. Edges are untouched; an inactive
// role simply stops contributing to resolution.
func (s *Service) SetRoleActive(ctx context.Context, id int64, active bool) (Role, error) {
	return s.UpdateRole(ctx, id, UpdateRoleRequest{IsActive: &active})
}

// DeleteRole removes the role and every edge that references it. Roles that
// are still assigned can be deleted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.info("role deleted", slog.Int64("role_id", id))
	return s.invalidateAll(ctx)
}

// ListPermissions returns the whole catalog ordered by module then action.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// PermissionsByModule groups the catalog by module for display.
func (s *Service) PermissionsByModule(ctx context.Context) ([]ModuleGroup, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByModule(perms), nil
}

// GroupByModule groups perms by module, preserving module order of first
// appearance after sorting by module name.
func GroupByModule(perms []Permission) []ModuleGroup {
	index := make(map[string]int)
	groups := make([]ModuleGroup, 0)
	for _, p := range perms {
		i, ok := index[p.Module]
		if !ok {
			i = len(groups)
			index[p.Module] = i
			groups = append(groups, ModuleGroup{Module: p.Module})
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Module < groups[j].Module })
	return groups
}

// CreatePermission adds a key to the catalog. Keys are unique.
func (s *Service) CreatePermission(ctx context.Context, module, action, description string) (Permission, error) {
	key, err := NewPermissionKey(module, action)
	if err != nil {
		return Permission{}, err
	}
	if _, err := s.repo.PermissionByKey(ctx, key); err == nil {
		return Permission{}, ErrPermissionExists
	} else if !errors.Is(err, ErrPermissionNotFound) {
		return Permission{}, err
	}
	perm, err := s.repo.EnsurePermission(ctx, key, strings.TrimSpace(description))
	if err != nil {
		return Permission{}, err
	}
	s.forgetKey(key)
	return perm, nil
}

// DeletePermission removes the permission and revokes it from every role.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	perm, err := s.repo.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	s.forgetKey(perm.Key())
	s.info("permission deleted", slog.Int64("permission_id", id))
	return s.invalidateAll(ctx)
}

// GrantPermission links a permission to a role. Granting twice is a no-op.
func (s *Service) GrantPermission(ctx context.Context, roleID, permissionID int64) error {
	if err := s.requireRolePermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	if err := s.repo.GrantPermissions(ctx, roleID, permissionID); err != nil {
		return err
	}
	return s.invalidateAll(ctx)
}

// RevokePermission unlinks a permission from a role. Revoking an absent edge
// is a no-op.
func (s *Service) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	if err := s.requireRolePermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	if err := s.repo.RevokePermissions(ctx, roleID, permissionID); err != nil {
		return err
	}
	return s.invalidateAll(ctx)
}

func (s *Service) requireRolePermission(ctx context.Context, roleID, permissionID int64) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.repo.GetPermission(ctx, permissionID); err != nil {
		return err
	}
	return nil
}

// ToggleModulePermissions converges the role to holding all or none of the
// module's permissions: if it holds every one they are revoked, otherwise
// the missing ones are granted. A module with no permissions is NotFound.
func (s *Service) ToggleModulePermissions(ctx context.Context, roleID int64, module string) (ToggleResult, error) {
	module = strings.ToLower(strings.TrimSpace(module))
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return ToggleResult{}, err
	}
	perms, err := s.repo.PermissionsByModule(ctx, module)
	if err != nil {
		return ToggleResult{}, err
	}
	if len(perms) == 0 {
		return ToggleResult{}, fmt.Errorf("rbac: module %q: %w", module, ErrPermissionNotFound)
	}
	heldIDs, err := s.repo.RolePermissionIDs(ctx, roleID)
	if err != nil {
		return ToggleResult{}, err
	}
	held := NewPermissionSet(heldIDs...)
	missing := make([]int64, 0, len(perms))
	all := make([]int64, 0, len(perms))
	for _, p := range perms {
		all = append(all, p.ID)
		if !held.Has(p.ID) {
			missing = append(missing, p.ID)
		}
	}

	res := ToggleResult{Module: perms[0].Module}
	if len(missing) == 0 {
		if err := s.repo.RevokePermissions(ctx, roleID, all...); err != nil {
			return ToggleResult{}, err
		}
		res.Changed = all
	} else {
		if err := s.repo.GrantPermissions(ctx, roleID, missing...); err != nil {
			return ToggleResult{}, err
		}
		res.Granted = true
		res.Changed = missing
	}
	if err := s.invalidateAll(ctx); err != nil {
		return ToggleResult{}, err
	}
	return res, nil
}

// AssignRole links an actor to a role. Assigning twice is a no-op.
func (s *Service) AssignRole(ctx context.Context, actorID, roleID int64) error {
	if err := s.requireActorRole(ctx, actorID, roleID); err != nil {
		return err
	}
	if err := s.repo.AssignRole(ctx, actorID, roleID); err != nil {
		return err
	}
	return s.invalidateActor(ctx, actorID)
}

// UnassignRole unlinks an actor from a role. Unassigning an absent edge is
// a no-op.
func (s *Service) UnassignRole(ctx context.Context, actorID, roleID int64) error {
	if err := s.requireActorRole(ctx, actorID, roleID); err != nil {
		return err
	}
	if err := s.repo.UnassignRole(ctx, actorID, roleID); err != nil {
		return err
	}
	return s.invalidateActor(ctx, actorID)
}

func (s *Service) requireActorRole(ctx context.Context, actorID, roleID int64) error {
	if actorID <= 0 {
		return ErrActorNotFound
	}
	if s.actors != nil {
		ok, err := s.actors.ActorExists(ctx, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrActorNotFound
		}
	}
	_, err := s.repo.GetRole(ctx, roleID)
	return err
}

// ActorRoles lists every role linked to the actor, including inactive ones.
func (s *Service) ActorRoles(ctx context.Context, actorID int64) ([]Role, error) {
	return s.repo.RolesForActor(ctx, actorID)
}

// EffectivePermissions returns the catalog entries the actor currently
// holds. It is for display; enforcement goes through the Gate.
func (s *Service) EffectivePermissions(ctx context.Context, actorID int64) ([]Permission, error) {
	set, err := s.resolver.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return []Permission{}, nil
	}
	all, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Permission, 0, len(set))
	for _, p := range all {
		if set.Has(p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) forgetKey(key PermissionKey) {
	if s.keyMemo != nil {
		s.keyMemo.Forget(key)
	}
}

func (s *Service) invalidateAll(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	if err := s.invalidator.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("rbac: invalidate resolver cache: %w", err)
	}
	return nil
}

func (s *Service) invalidateActor(ctx context.Context, actorID int64) error {
	if s.invalidator == nil {
		return nil
	}
	if err := s.invalidator.InvalidateActor(ctx, actorID); err != nil {
		return fmt.Errorf("rbac: invalidate resolver cache: %w", err)
	}
	return nil
}

func (s *Service) info(msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.Info(msg, attrs...)
	}
}
