package rbac

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

type edge struct{ a, b int64 }

// MemoryRepository is an in-process Repository used by tests and by the
// memory store driver. It enforces the same integrity rules as PostgreSQL.
type MemoryRepository struct {
	mu          sync.RWMutex
	now         func() time.Time
	nextPermID  int64
	nextRoleID  int64
	permissions map[int64]Permission
	roles       map[int64]Role
	rolePerms   map[edge]time.Time // (roleID, permissionID)
	userRoles   map[edge]time.Time // (actorID, roleID)
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:         time.Now,
		permissions: make(map[int64]Permission),
		roles:       make(map[int64]Role),
		rolePerms:   make(map[edge]time.Time),
		userRoles:   make(map[edge]time.Time),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) RolesForActor(_ context.Context, actorID int64) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Role
	for e := range m.userRoles {
		if e.a == actorID {
			out = append(out, m.roles[e.b])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) PermissionIDsForRoles(_ context.Context, roleIDs []int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := NewPermissionSet()
	for e := range m.rolePerms {
		if slices.Contains(roleIDs, e.a) {
			set[e.b] = struct{}{}
		}
	}
	return set.IDs(), nil
}

func (m *MemoryRepository) PermissionByKey(_ context.Context, key PermissionKey) (Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.permissions {
		if p.Key() == key {
			return p, nil
		}
	}
	return Permission{}, ErrPermissionNotFound
}

func (m *MemoryRepository) ListPermissions(_ context.Context) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Permission, 0, len(m.permissions))
	for _, p := range m.permissions {
		out = append(out, p)
	}
	sortPermissions(out)
	return out, nil
}

func (m *MemoryRepository) PermissionsByModule(_ context.Context, module string) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Permission
	for _, p := range m.permissions {
		if p.Module == module {
			out = append(out, p)
		}
	}
	sortPermissions(out)
	return out, nil
}

func sortPermissions(perms []Permission) {
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Module != perms[j].Module {
			return perms[i].Module < perms[j].Module
		}
		return perms[i].Action < perms[j].Action
	})
}

func (m *MemoryRepository) GetPermission(_ context.Context, id int64) (Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.permissions[id]
	if !ok {
		return Permission{}, ErrPermissionNotFound
	}
	return p, nil
}

func (m *MemoryRepository) EnsurePermission(_ context.Context, key PermissionKey, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.permissions {
		if p.Key() == key {
			p.Description = description
			m.permissions[id] = p
			return p, nil
		}
	}
	m.nextPermID++
	p := Permission{
		ID:          m.nextPermID,
		Module:      key.Module,
		Action:      key.Action,
		Description: description,
		CreatedAt:   m.now(),
	}
	m.permissions[p.ID] = p
	return p, nil
}

func (m *MemoryRepository) DeletePermission(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.permissions[id]; !ok {
		return ErrPermissionNotFound
	}
	delete(m.permissions, id)
	for e := range m.rolePerms {
		if e.b == id {
			delete(m.rolePerms, e)
		}
	}
	return nil
}

func (m *MemoryRepository) ListRoles(_ context.Context) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) GetRole(_ context.Context, id int64) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return r, nil
}

func (m *MemoryRepository) nameTaken(name string, except int64) bool {
	for id, r := range m.roles {
		if id != except && r.Name == name {
			return true
		}
	}
	return false
}

func (m *MemoryRepository) CreateRole(_ context.Context, name, description string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(name, 0) {
		return Role{}, ErrRoleNameTaken
	}
	m.nextRoleID++
	now := m.now()
	r := Role{ID: m.nextRoleID, Name: name, Description: description, IsActive: true, CreatedAt: now, UpdatedAt: now}
	m.roles[r.ID] = r
	return r, nil
}

func (m *MemoryRepository) UpdateRole(_ context.Context, id int64, update RoleUpdate) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	if update.Name != nil {
		if m.nameTaken(*update.Name, id) {
			return Role{}, ErrRoleNameTaken
		}
		r.Name = *update.Name
	}
	if update.Description != nil {
		r.Description = *update.Description
	}
	if update.IsActive != nil {
		r.IsActive = *update.IsActive
	}
	r.UpdatedAt = m.now()
	m.roles[id] = r
	return r, nil
}

func (m *MemoryRepository) DeleteRole(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return ErrRoleNotFound
	}
	delete(m.roles, id)
	for e := range m.rolePerms {
		if e.a == id {
			delete(m.rolePerms, e)
		}
	}
	for e := range m.userRoles {
		if e.b == id {
			delete(m.userRoles, e)
		}
	}
	return nil
}

func (m *MemoryRepository) RolePermissionIDs(_ context.Context, roleID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0)
	for e := range m.rolePerms {
		if e.a == roleID {
			ids = append(ids, e.b)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *MemoryRepository) GrantPermissions(_ context.Context, roleID int64, permissionIDs ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return ErrRoleNotFound
	}
	for _, id := range permissionIDs {
		if _, ok := m.permissions[id]; !ok {
			return ErrPermissionNotFound
		}
	}
	now := m.now()
	for _, id := range permissionIDs {
		e := edge{roleID, id}
		if _, ok := m.rolePerms[e]; !ok {
			m.rolePerms[e] = now
		}
	}
	return nil
}

func (m *MemoryRepository) RevokePermissions(_ context.Context, roleID int64, permissionIDs ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range permissionIDs {
		delete(m.rolePerms, edge{roleID, id})
	}
	return nil
}

func (m *MemoryRepository) AssignRole(_ context.Context, actorID, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return ErrRoleNotFound
	}
	e := edge{actorID, roleID}
	if _, ok := m.userRoles[e]; !ok {
		m.userRoles[e] = m.now()
	}
	return nil
}

func (m *MemoryRepository) UnassignRole(_ context.Context, actorID, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userRoles, edge{actorID, roleID})
	return nil
}

// UserRoles returns a snapshot of the actor-role edges, for inspection in tests.
func (m *MemoryRepository) UserRoles() []UserRole {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UserRole, 0, len(m.userRoles))
	for e, at := range m.userRoles {
		out = append(out, UserRole{ActorID: e.a, RoleID: e.b, CreatedAt: at})
	}
	return out
}

// RolePermissions returns a snapshot of the role-permission edges.
func (m *MemoryRepository) RolePermissions() []RolePermission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RolePermission, 0, len(m.rolePerms))
	for e, at := range m.rolePerms {
		out = append(out, RolePermission{RoleID: e.a, PermissionID: e.b, CreatedAt: at})
	}
	return out
}
