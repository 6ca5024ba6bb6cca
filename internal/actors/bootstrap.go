package actors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alumnihub/alumnihub/internal/rbac"
)

// Bootstrap makes sure a central actor named displayName exists and holds
// roleName. It is safe to run on every start.
func (s *Service) Bootstrap(ctx context.Context, access *rbac.Service, displayName, roleName string) (Actor, error) {
	displayName = strings.TrimSpace(displayName)
	list, err := s.ListActors(ctx)
	if err != nil {
		return Actor{}, err
	}
	var actor Actor
	for _, a := range list {
		if a.DisplayName == displayName && a.BranchID == nil {
			actor = a
			break
		}
	}
	if actor.ID == 0 {
		actor, err = s.Provision(ctx, ProvisionRequest{DisplayName: displayName})
		if err != nil {
			return Actor{}, err
		}
	}

	roles, err := access.ListRoles(ctx)
	if err != nil {
		return Actor{}, err
	}
	for _, role := range roles {
		if role.Name != roleName {
			continue
		}
		if err := access.AssignRole(ctx, actor.ID, role.ID); err != nil {
			return Actor{}, err
		}
		if s.logger != nil {
			s.logger.Info("bootstrap actor ready", slog.Int64("actor_id", actor.ID), slog.String("role", roleName))
		}
		return actor, nil
	}
	return Actor{}, fmt.Errorf("actors: bootstrap role %q: %w", roleName, rbac.ErrRoleNotFound)
}
