package actors

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/alumnihub/alumnihub/internal/platform/validate"
	"github.com/alumnihub/alumnihub/internal/rbac"
	"github.com/alumnihub/alumnihub/internal/shared"
	"github.com/alumnihub/alumnihub/internal/tenancy"
)

// Service is the read side of the actor directory.
type Service struct {
	repo     RepositoryPort
	branches tenancy.BranchLookup
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, branches tenancy.BranchLookup, logger *slog.Logger) *Service {
	return &Service{repo: repo, branches: branches, logger: logger}
}

var _ rbac.ActorLookup = (*Service)(nil)

// ListActors returns all actors.
func (s *Service) ListActors(ctx context.Context) ([]Actor, error) {
	return s.repo.ListActors(ctx)
}

// GetActor fetches one actor.
func (s *Service) GetActor(ctx context.Context, id int64) (Actor, error) {
	if id <= 0 {
		return Actor{}, ErrNotFound
	}
	return s.repo.GetActor(ctx, id)
}

// ActorExists implements rbac.ActorLookup.
func (s *Service) ActorExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.GetActor(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Principal loads the actor behind a request.
func (s *Service) Principal(ctx context.Context, id int64) (shared.Principal, error) {
	a, err := s.GetActor(ctx, id)
	if err != nil {
		return shared.Principal{}, err
	}
	return shared.Principal{ActorID: a.ID, Scope: a.Scope()}, nil
}

// ProvisionRequest mirrors an identity into the directory.
type ProvisionRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=120"`
	BranchID    *int64 `json:"branch_id" validate:"omitnil,gt=0"`
}

// Provision records an actor. It is used by seeding and by the identity
// sync, not by the HTTP surface.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (Actor, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validate.Struct(req); err != nil {
		return Actor{}, err
	}
	if req.BranchID != nil && s.branches != nil {
		ids, err := s.branches.ExistingBranchIDs(ctx, []int64{*req.BranchID})
		if err != nil {
			return Actor{}, err
		}
		if len(ids) == 0 {
			return Actor{}, ErrUnknownBranch
		}
	}
	a, err := s.repo.CreateActor(ctx, req.DisplayName, req.BranchID)
	if err != nil {
		return Actor{}, err
	}
	if s.logger != nil {
		s.logger.Info("actor provisioned", slog.Int64("actor_id", a.ID), slog.String("scope", a.Scope().String()))
	}
	return a, nil
}
