package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fieldrate/internal/clock"
	obsmetrics "github.com/smallbiznis/fieldrate/internal/observability/metrics"
	pricetierdomain "github.com/smallbiznis/fieldrate/internal/pricetier/domain"
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
	Repo  pricetierdomain.Repository

	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    pricetierdomain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) pricetierdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("pricetier.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Create adds a band only if the resulting set still validates, so a stored
// range set can never carry a gap or overlap.
func (s *Service) Create(ctx context.Context, req pricetierdomain.CreateRequest) (*pricetierdomain.Response, error) {
	orgID, err := parseID(req.OrganizationID)
	if err != nil {
		return nil, pricetierdomain.ErrInvalidOrganization
	}

	unitPrice, err := decimal.NewFromString(strings.TrimSpace(req.UnitPrice))
	if err != nil || unitPrice.IsNegative() {
		return nil, pricetierdomain.ErrInvalidUnitPrice
	}

	now := s.clock.Now()
	entity := &pricetierdomain.PricingRange{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		StartUnit:   req.StartUnit,
		EndUnit:     req.EndUnit,
		UnitPrice:   unitPrice,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.repo.ListByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if result := pricetierdomain.Validate(append(existing, *entity)); !result.Valid {
		s.log.Warn("pricing range rejected",
			zap.String("org_id", orgID.String()),
			zap.Strings("violations", result.Errors),
		)
		return nil, pricetierdomain.ErrMalformedRangeSet
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, organizationID string) ([]pricetierdomain.Response, error) {
	orgID, err := parseID(organizationID)
	if err != nil {
		return nil, pricetierdomain.ErrInvalidOrganization
	}

	items, err := s.repo.ListByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]pricetierdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}

	return resp, nil
}

func (s *Service) Delete(ctx context.Context, organizationID string, id string) error {
	orgID, err := parseID(organizationID)
	if err != nil {
		return pricetierdomain.ErrInvalidOrganization
	}

	bandID, err := parseID(id)
	if err != nil {
		return pricetierdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, orgID, bandID)
	if err != nil {
		return err
	}
	if entity == nil {
		return pricetierdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, orgID, bandID)
}

// RangesForOrg loads the stored set and re-validates it at the boundary.
// Rows edited out-of-band into a malformed set fail here, not inside the
// calculator.
func (s *Service) RangesForOrg(ctx context.Context, organizationID string) ([]pricetierdomain.PricingRange, error) {
	orgID, err := parseID(organizationID)
	if err != nil {
		return nil, pricetierdomain.ErrInvalidOrganization
	}

	items, err := s.repo.ListByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	if result := pricetierdomain.Validate(items); !result.Valid {
		s.log.Error("stored pricing ranges failed validation",
			zap.String("org_id", orgID.String()),
			zap.Strings("violations", result.Errors),
		)
		return nil, pricetierdomain.ErrMalformedRangeSet
	}

	return items, nil
}

func (s *Service) PriceForDevices(ctx context.Context, organizationID string, deviceCount int64) (*pricetierdomain.GraduatedCostResult, error) {
	if deviceCount < 0 {
		return nil, pricetierdomain.ErrInvalidDeviceCount
	}

	ranges, err := s.RangesForOrg(ctx, organizationID)
	if err != nil {
		s.metrics.RecordDeviceCharge(ctx, organizationID, "range_load_failed")
		return nil, err
	}

	result := pricetierdomain.Calculate(deviceCount, ranges)
	s.metrics.RecordDeviceCharge(ctx, organizationID, "ok")
	return &result, nil
}

func (s *Service) MaxUnitsForOrg(ctx context.Context, organizationID string) (*int64, error) {
	ranges, err := s.RangesForOrg(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return pricetierdomain.MaxUnits(ranges), nil
}

func (s *Service) toResponse(b *pricetierdomain.PricingRange) *pricetierdomain.Response {
	return &pricetierdomain.Response{
		ID:             b.ID.String(),
		OrganizationID: b.OrgID.String(),
		StartUnit:      b.StartUnit,
		EndUnit:        b.EndUnit,
		UnitPrice:      b.UnitPrice.String(),
		Description:    b.Description,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
