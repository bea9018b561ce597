package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fieldrate/internal/clock"
	obsmetrics "github.com/smallbiznis/fieldrate/internal/observability/metrics"
	"github.com/smallbiznis/fieldrate/internal/providers/pdf"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
	workorderdomain "github.com/smallbiznis/fieldrate/internal/workorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceDateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        workorderdomain.Repository
	RatecardSvc ratecarddomain.Service
	RatingSvc   ratingdomain.Service

	PDF     pdf.Provider        `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        workorderdomain.Repository
	ratecardSvc ratecarddomain.Service
	ratingSvc   ratingdomain.Service
	pdf         pdf.Provider
	metrics     *obsmetrics.Metrics
}

func New(p Params) workorderdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("workorder.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		ratecardSvc: p.RatecardSvc,
		ratingSvc:   p.RatingSvc,
		pdf:         p.PDF,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req workorderdomain.CreateRequest) (*workorderdomain.Response, error) {
	orgID, err := parseID(req.OrganizationID)
	if err != nil {
		return nil, workorderdomain.ErrInvalidOrganization
	}

	serviceDate, err := time.ParseInLocation(serviceDateLayout, strings.TrimSpace(req.ServiceDate), time.UTC)
	if err != nil {
		return nil, workorderdomain.ErrInvalidInterval
	}
	if req.StartMinute == nil || req.EndMinute == nil || *req.StartMinute < 0 || *req.EndMinute < *req.StartMinute {
		return nil, workorderdomain.ErrInvalidInterval
	}

	baseRate, err := decimal.NewFromString(strings.TrimSpace(req.BaseRate))
	if err != nil || baseRate.IsNegative() {
		return nil, workorderdomain.ErrInvalidInterval
	}

	now := s.clock.Now()
	entity := &workorderdomain.WorkOrder{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		ClientName:   strings.TrimSpace(req.ClientName),
		ServiceDate:  serviceDate,
		StartMinute:  *req.StartMinute,
		EndMinute:    *req.EndMinute,
		BaseRate:     baseRate,
		CategoryName: strings.TrimSpace(req.CategoryName),
		FirstRequest: req.FirstRequest,
		Status:       workorderdomain.WorkOrderStatusScheduled,
		DeviceCount:  req.DeviceCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) AddTimeEntry(ctx context.Context, req workorderdomain.TimeEntryRequest) error {
	orgID, err := parseID(req.OrganizationID)
	if err != nil {
		return workorderdomain.ErrInvalidOrganization
	}
	workOrderID, err := parseID(req.WorkOrderID)
	if err != nil {
		return workorderdomain.ErrNotFound
	}
	if !req.EndAt.After(req.StartAt) {
		return workorderdomain.ErrInvalidTimeEntry
	}

	order, err := s.repo.FindByID(ctx, s.db, orgID, workOrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return workorderdomain.ErrNotFound
	}

	entry := &workorderdomain.TimeEntry{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		WorkOrderID: workOrderID,
		StartAt:     req.StartAt.UTC(),
		EndAt:       req.EndAt.UTC(),
		CreatedAt:   s.clock.Now(),
	}
	return s.repo.InsertTimeEntry(ctx, s.db, entry)
}

func (s *Service) Complete(ctx context.Context, organizationID, id string) error {
	orgID, err := parseID(organizationID)
	if err != nil {
		return workorderdomain.ErrInvalidOrganization
	}
	workOrderID, err := parseID(id)
	if err != nil {
		return workorderdomain.ErrNotFound
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, orgID, workOrderID,
		workorderdomain.WorkOrderStatusScheduled, workorderdomain.WorkOrderStatusCompleted)
	if err != nil {
		return err
	}
	if !updated {
		return workorderdomain.ErrNotFound
	}
	return nil
}

func (s *Service) Estimate(ctx context.Context, organizationID, id string) (*ratingdomain.CostEstimate, error) {
	orgID, err := parseID(organizationID)
	if err != nil {
		return nil, workorderdomain.ErrInvalidOrganization
	}
	workOrderID, err := parseID(id)
	if err != nil {
		return nil, workorderdomain.ErrNotFound
	}

	order, err := s.repo.FindByID(ctx, s.db, orgID, workOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, workorderdomain.ErrNotFound
	}

	table, err := s.ratecardSvc.TableForOrg(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	estimate, err := s.ratingSvc.EstimateScheduledCost(EstimateRequestFor(order, table))
	if err != nil {
		return nil, err
	}
	if estimate != nil {
		s.metrics.RecordCostEstimate(ctx, order.CategoryName)
	}
	return estimate, nil
}

// EstimateDocument renders the priced interval as a PDF quote attachment.
func (s *Service) EstimateDocument(ctx context.Context, organizationID, id string) (io.Reader, error) {
	if s.pdf == nil {
		return nil, workorderdomain.ErrDocumentUnavailable
	}

	orgID, err := parseID(organizationID)
	if err != nil {
		return nil, workorderdomain.ErrInvalidOrganization
	}
	workOrderID, err := parseID(id)
	if err != nil {
		return nil, workorderdomain.ErrNotFound
	}

	order, err := s.repo.FindByID(ctx, s.db, orgID, workOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, workorderdomain.ErrNotFound
	}

	estimate, err := s.Estimate(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if estimate == nil {
		return nil, workorderdomain.ErrInvalidInterval
	}

	return s.pdf.GenerateEstimate(ctx, estimateDocumentData(order, estimate))
}

func estimateDocumentData(order *workorderdomain.WorkOrder, estimate *ratingdomain.CostEstimate) pdf.EstimateData {
	lines := make([]pdf.EstimateLine, 0, len(estimate.Breakdown))
	for _, block := range estimate.Breakdown {
		lines = append(lines, pdf.EstimateLine{
			TierName:   block.TierName,
			Multiplier: block.Multiplier.String() + "x",
			Hours:      block.Hours.String(),
			Cost:       block.Cost.StringFixed(2),
		})
	}

	data := pdf.EstimateData{
		ClientName:  order.ClientName,
		ServiceDate: order.ServiceDate.Format(serviceDateLayout),
		Window:      formatWindow(order.StartMinute, order.EndMinute),
		Category:    order.CategoryName,
		BaseRate:    order.BaseRate.StringFixed(2),
		Lines:       lines,
		Subtotal:    estimate.Subtotal.StringFixed(2),
		Total:       estimate.Total.StringFixed(2),
	}
	if estimate.FirstHourDiscount != nil {
		data.FirstHourDiscount = estimate.FirstHourDiscount.StringFixed(2)
	}
	return data
}

func formatWindow(startMinute, endMinute int) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		startMinute/60, startMinute%60, endMinute/60, endMinute%60)
}

// EstimateRequestFor maps a stored work order onto the engine's input shape.
func EstimateRequestFor(order *workorderdomain.WorkOrder, table *ratecarddomain.TierTable) ratingdomain.EstimateRequest {
	start := order.StartMinute
	end := order.EndMinute
	base := order.BaseRate
	return ratingdomain.EstimateRequest{
		Date:           order.ServiceDate,
		StartMinute:    &start,
		EndMinute:      &end,
		BaseRate:       &base,
		IsFirstRequest: order.FirstRequest,
		CategoryName:   order.CategoryName,
		Tiers:          table,
	}
}

func (s *Service) toResponse(o *workorderdomain.WorkOrder) *workorderdomain.Response {
	return &workorderdomain.Response{
		ID:             o.ID.String(),
		OrganizationID: o.OrgID.String(),
		ClientName:     o.ClientName,
		ServiceDate:    o.ServiceDate.Format(serviceDateLayout),
		StartMinute:    o.StartMinute,
		EndMinute:      o.EndMinute,
		BaseRate:       o.BaseRate.String(),
		CategoryName:   o.CategoryName,
		FirstRequest:   o.FirstRequest,
		Status:         string(o.Status),
		DeviceCount:    o.DeviceCount,
		CreatedAt:      o.CreatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
