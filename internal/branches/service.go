package branches

import (
	"context"
	"log/slog"

	"github.com/alumnihub/alumnihub/internal/shared"
	"github.com/alumnihub/alumnihub/internal/tenancy"
)

// Service manages the branch directory.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

var _ tenancy.BranchLookup = (*Service)(nil)

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Branch, error) {
	if id <= 0 {
		return Branch{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form BranchForm) (Branch, error) {
	if err := s.validate(&form); err != nil {
		return Branch{}, err
	}
	b, err := s.repo.Create(ctx, form.Name)
	if err != nil {
		return Branch{}, err
	}
	if s.logger != nil {
		s.logger.Info("branch created", slog.Int64("branch_id", b.ID), slog.String("name", b.Name))
	}
	return b, nil
}

// ExistingBranchIDs implements tenancy.BranchLookup.
func (s *Service) ExistingBranchIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return s.repo.ExistingIDs(ctx, ids)
}
