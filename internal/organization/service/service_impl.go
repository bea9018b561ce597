package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/fieldrate/internal/clock"
	"github.com/smallbiznis/fieldrate/internal/organization/domain"
	dbpkg "github.com/smallbiznis/fieldrate/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	orgSlug := slug.Make(name)
	existing, err := s.repo.FindBySlug(ctx, orgSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := s.clock.Now()
	org := &domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      orgSlug,
		Country:   strings.ToUpper(strings.TrimSpace(req.Country)),
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, org); err != nil {
		// The slug carries a unique index; a concurrent create loses here.
		if dbpkg.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	return toResponse(org), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Response, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(org), nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	orgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Response, 0, len(orgs))
	for i := range orgs {
		out = append(out, *toResponse(&orgs[i]))
	}
	return out, nil
}

func toResponse(org *domain.Organization) *domain.Response {
	return &domain.Response{
		ID:       org.ID.String(),
		Name:     org.Name,
		Slug:     org.Slug,
		Country:  org.Country,
		Currency: org.Currency,
	}
}
