package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
)

// EstimateRequest carries the inputs of a scheduled-cost calculation.
// Pointer fields are optional: draft requests often probe the engine before
// all fields are filled in, and that yields "no estimate", not an error.
type EstimateRequest struct {
	Date           time.Time
	StartMinute    *int
	EndMinute      *int
	BaseRate       *decimal.Decimal
	IsFirstRequest bool
	CategoryName   string
	Tiers          *ratecarddomain.TierTable
}

// Complete reports whether every required input is present.
func (r EstimateRequest) Complete() bool {
	return !r.Date.IsZero() && r.StartMinute != nil && r.EndMinute != nil && r.BaseRate != nil
}

type Service interface {
	// EstimateScheduledCost prices a scheduled interval against the tier
	// table. Incomplete input returns (nil, nil).
	EstimateScheduledCost(req EstimateRequest) (*CostEstimate, error)

	// ReconcileActualHours tallies worked minutes per tier across the
	// technician's clock-in/out log.
	ReconcileActualHours(entries []WorkedInterval, tiers *ratecarddomain.TierTable) ActualHoursBreakdown
}

var (
	ErrInvalidBaseRate = errors.New("invalid_base_rate")
	ErrInvalidInterval = errors.New("invalid_interval")
)
