package content

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

// Service combines the enforcement gate (may the actor act on this kind?)
// with the tenancy scoper (may the actor see this record?).
type Service struct {
	repo     Repository
	gate     *rbac.Gate
	branches tenancy.BranchLookup
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, gate *rbac.Gate, branches tenancy.BranchLookup, logger *slog.Logger) *Service {
	return &Service{repo: repo, gate: gate, branches: branches, logger: logger}
}

// Page is one page of visible records.
type Page struct {
	Records    []Record          `json:"records"`
	Pagination shared.Pagination `json:"pagination"`
}

// Create validates and stores a record authored by p. Nothing is stored
// when the policy is invalid.
func (s *Service) Create(ctx context.Context, p shared.Principal, req CreateRequest) (Record, error) {
	req.Kind = Kind(strings.ToLower(strings.TrimSpace(string(req.Kind))))
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(req); err != nil {
		return Record{}, err
	}
	if err := s.require(ctx, p.ActorID, req.Kind, "create"); err != nil {
		return Record{}, err
	}
	policy := req.Visibility.Normalize()
	if err := tenancy.ValidateTargets(ctx, policy, s.branches); err != nil {
		return Record{}, err
	}
	if err := tenancy.CanTarget(p.Scope, policy); err != nil {
		return Record{}, err
	}
	rec, err := s.repo.Create(ctx, Record{
		Kind:       req.Kind,
		Title:      req.Title,
		Body:       req.Body,
		AuthorID:   p.ActorID,
		Visibility: policy,
	})
	if err != nil {
		return Record{}, err
	}
	if s.logger != nil {
		s.logger.Info("content created",
			slog.Int64("record_id", rec.ID),
			slog.String("kind", string(rec.Kind)),
			slog.String("visibility", string(policy.Mode)))
	}
	return rec, nil
}

// List returns the records visible to p. With an empty kind it lists every
// kind p may view; naming a kind p may not view is Denied. The actor is
// resolved once for the whole listing.
func (s *Service) List(ctx context.Context, p shared.Principal, kind Kind, filters shared.ListFilters) (Page, error) {
	kind = Kind(strings.ToLower(strings.TrimSpace(string(kind))))
	snap := s.gate.For(ctx, p.ActorID)
	viewable := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		key, err := k.Permission("view")
		if err != nil {
			return Page{}, err
		}
		viewable[k] = snap.Allows(ctx, key)
	}
	if kind != "" {
		if _, ok := kind.Module(); !ok {
			return Page{}, validate.Field("kind", "must be one of article event donation listing")
		}
		if !viewable[kind] {
			return Page{}, ErrDenied
		}
	}

	records, err := s.repo.List(ctx, kind)
	if err != nil {
		return Page{}, err
	}
	allowed := make([]Record, 0, len(records))
	for _, r := range records {
		if viewable[r.Kind] {
			allowed = append(allowed, r)
		}
	}
	visible := tenancy.Filter(p.Scope, allowed, policyOf)
	if filters.Limit <= 0 {
		filters.Limit = shared.DefaultLimit
	}
	return Page{
		Records:    shared.Paginate(visible, filters),
		Pagination: shared.NewPagination(filters.Page, filters.Limit, len(visible)),
	}, nil
}

// Get returns one record. Records outside p's scope are reported as not
// found so their existence does not leak across branches.
func (s *Service) Get(ctx context.Context, p shared.Principal, id int64) (Record, error) {
	rec, err := s.scoped(ctx, p, id)
	if err != nil {
		return Record{}, err
	}
	if err := s.require(ctx, p.ActorID, rec.Kind, "view"); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes a record. It requires the kind's delete permission and
// the record to be in p's scope.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id int64) error {
	rec, err := s.scoped(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.require(ctx, p.ActorID, rec.Kind, "delete"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("content deleted", slog.Int64("record_id", id), slog.Int64("actor_id", p.ActorID))
	}
	return nil
}

func (s *Service) scoped(ctx context.Context, p shared.Principal, id int64) (Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !tenancy.InScope(p.Scope, rec.Visibility) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *Service) require(ctx context.Context, actorID int64, kind Kind, action string) error {
	key, err := kind.Permission(action)
	if err != nil {
		return errors.Join(ErrDenied, err)
	}
	if s.gate.Authorize(ctx, actorID, key) != rbac.Allow {
		return ErrDenied
	}
	return nil
}
