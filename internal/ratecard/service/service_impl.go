package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fieldrate/internal/clock"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  ratecarddomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  ratecarddomain.Repository
}

func New(p Params) ratecarddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ratecard.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req ratecarddomain.CreateRequest) (*ratecarddomain.Response, error) {
	orgID, err := parseID(req.OrganizationID)
	if err != nil {
		return nil, ratecarddomain.ErrInvalidOrganization
	}

	multiplier, err := decimal.NewFromString(strings.TrimSpace(req.Multiplier))
	if err != nil {
		return nil, ratecarddomain.ErrInvalidMultiplier
	}

	now := s.clock.Now()
	entity := &ratecarddomain.RateTier{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        strings.TrimSpace(req.Name),
		Level:       req.Level,
		DayOfWeek:   time.Weekday(req.DayOfWeek),
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Multiplier:  multiplier,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ratecarddomain.ValidateTier(*entity); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if _, err := ratecarddomain.NewTierTable(append(existing, *entity)); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, organizationID string) ([]ratecarddomain.Response, error) {
	orgID, err := parseID(organizationID)
	if err != nil {
		return nil, ratecarddomain.ErrInvalidOrganization
	}

	items, err := s.repo.ListByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]ratecarddomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}

	return resp, nil
}

func (s *Service) Delete(ctx context.Context, organizationID string, id string) error {
	orgID, err := parseID(organizationID)
	if err != nil {
		return ratecarddomain.ErrInvalidOrganization
	}

	tierID, err := parseID(id)
	if err != nil {
		return ratecarddomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, tierID)
	if err != nil {
		return err
	}
	if entity == nil {
		return ratecarddomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, orgID, tierID)
}

// TableForOrg loads and validates the full weekly rate card. Rows are
// checked here so the cost engine never sees malformed tier data.
func (s *Service) TableForOrg(ctx context.Context, organizationID string) (*ratecarddomain.TierTable, error) {
	orgID, err := parseID(organizationID)
	if err != nil {
		return nil, ratecarddomain.ErrInvalidOrganization
	}

	rows, err := s.repo.ListByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	table, err := ratecarddomain.NewTierTable(rows)
	if err != nil {
		s.log.Error("rate card failed validation",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return table, nil
}

func (s *Service) toResponse(t *ratecarddomain.RateTier) *ratecarddomain.Response {
	return &ratecarddomain.Response{
		ID:             t.ID.String(),
		OrganizationID: t.OrgID.String(),
		Name:           t.Name,
		Level:          t.Level,
		DayOfWeek:      int(t.DayOfWeek),
		StartMinute:    t.StartMinute,
		EndMinute:      t.EndMinute,
		Multiplier:     t.Multiplier.String(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
