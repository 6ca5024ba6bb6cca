package rbac

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the deploy-time declaration of permissions and bootstrap roles.
type Catalog struct {
	Modules []CatalogModule `yaml:"modules"`
	Roles   []CatalogRole   `yaml:"roles"`
}

// CatalogModule groups the actions of one module.
type CatalogModule struct {
	Name        string              `yaml:"name"`
	Permissions []CatalogPermission `yaml:"permissions"`
}

// CatalogPermission declares one action.
type CatalogPermission struct {
	Action      string `yaml:"action"`
	Description string `yaml:"description"`
}

// CatalogRole declares a bootstrap role. Modules expand to every action of
// the module at seed time only.
type CatalogRole struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Modules     []string `yaml:"modules"`
	Permissions []string `yaml:"permissions"`
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalogFile reads a catalog from path; an empty path yields the default.
func LoadCatalogFile(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("rbac: open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes and validates a YAML catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("rbac: decode catalog: %w", err)
	}
	if _, err := c.Keys(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Keys returns every declared permission key, rejecting duplicates.
func (c Catalog) Keys() ([]PermissionKey, error) {
	seen := make(map[PermissionKey]struct{})
	var keys []PermissionKey
	for _, m := range c.Modules {
		for _, p := range m.Permissions {
			k, err := NewPermissionKey(m.Name, p.Action)
			if err != nil {
				return nil, fmt.Errorf("rbac: catalog %s.%s: %w", m.Name, p.Action, err)
			}
			if _, dup := seen[k]; dup {
				return nil, fmt.Errorf("rbac: catalog declares %s twice", k)
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// RoleKeys expands a bootstrap role into concrete permission keys.
func (c Catalog) RoleKeys(role CatalogRole) ([]PermissionKey, error) {
	set := make(map[PermissionKey]struct{})
	for _, module := range role.Modules {
		found := false
		for _, m := range c.Modules {
			if !strings.EqualFold(m.Name, module) {
				continue
			}
			found = true
			for _, p := range m.Permissions {
				k, err := NewPermissionKey(m.Name, p.Action)
				if err != nil {
					return nil, err
				}
				set[k] = struct{}{}
			}
		}
		if !found {
			return nil, fmt.Errorf("rbac: role %s references unknown module %s", role.Name, module)
		}
	}
	for _, raw := range role.Permissions {
		k, err := ParsePermissionKey(raw)
		if err != nil {
			return nil, fmt.Errorf("rbac: role %s: %w", role.Name, err)
		}
		set[k] = struct{}{}
	}
	keys := make([]PermissionKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

func (c Catalog) description(k PermissionKey) string {
	for _, m := range c.Modules {
		if !strings.EqualFold(m.Name, k.Module) {
			continue
		}
		for _, p := range m.Permissions {
			if strings.EqualFold(p.Action, k.Action) {
				return strings.TrimSpace(p.Description)
			}
		}
	}
	return ""
}

// SeedResult summarises a catalog seed run.
type SeedResult struct {
	Permissions  int
	RolesCreated int
	Grants       int
}

// Seed upserts the catalog's permissions and creates any missing bootstrap
// roles. Existing roles keep their current grants.
func (s *Service) Seed(ctx context.Context, c Catalog) (SeedResult, error) {
	var res SeedResult
	keys, err := c.Keys()
	if err != nil {
		return res, err
	}
	byKey := make(map[PermissionKey]int64, len(keys))
	for _, k := range keys {
		p, err := s.repo.EnsurePermission(ctx, k, c.description(k))
		if err != nil {
			return res, fmt.Errorf("rbac: ensure %s: %w", k, err)
		}
		byKey[k] = p.ID
		res.Permissions++
	}
	for _, cr := range c.Roles {
		roleKeys, err := c.RoleKeys(cr)
		if err != nil {
			return res, err
		}
		role, err := s.CreateRole(ctx, cr.Name, cr.Description)
		if errors.Is(err, ErrRoleNameTaken) {
			continue
		}
		if err != nil {
			return res, err
		}
		res.RolesCreated++
		ids := make([]int64, 0, len(roleKeys))
		for _, k := range roleKeys {
			id, ok := byKey[k]
			if !ok {
				return res, fmt.Errorf("rbac: role %s grants %s which is not in the catalog", cr.Name, k)
			}
			ids = append(ids, id)
		}
		if err := s.repo.GrantPermissions(ctx, role.ID, ids...); err != nil {
			return res, fmt.Errorf("rbac: seed grants for %s: %w", cr.Name, err)
		}
		res.Grants += len(ids)
	}
	if len(c.Roles) > 0 {
		if err := s.invalidateAll(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}
