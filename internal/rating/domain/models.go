// Package domain contains the value types produced by the cost engine.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBlock is a contiguous span billed at one tier multiplier. Hours is a
// multiple of the segmentation step; Cost is rounded to cents when the block
// is closed.
type PriceBlock struct {
	TierName   string          `json:"tier_name"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Hours      decimal.Decimal `json:"hours"`
	Cost       decimal.Decimal `json:"cost"`
}

// DiscountShare records how much of the promotional free hour was consumed
// inside one price block, credited at that block's own multiplier.
type DiscountShare struct {
	TierName   string          `json:"tier_name"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Hours      decimal.Decimal `json:"hours"`
	Amount     decimal.Decimal `json:"amount"`
}

// CostEstimate is the computed cost of a scheduled interval.
type CostEstimate struct {
	BaseRate           decimal.Decimal  `json:"base_rate"`
	CategoryName       string           `json:"rate_category_name"`
	DurationHours      decimal.Decimal  `json:"duration_hours"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	FirstHourDiscount  *decimal.Decimal `json:"first_hour_discount,omitempty"`
	FirstHourBreakdown []DiscountShare  `json:"first_hour_breakdown,omitempty"`
	Total              decimal.Decimal  `json:"total"`
	Breakdown          []PriceBlock     `json:"breakdown"`
	IsFirstRequest     bool             `json:"is_first_request"`
}

// WorkedInterval is one clock-in/clock-out pair from a technician log.
type WorkedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TierMinutes tallies actually worked minutes attributed to one tier.
type TierMinutes struct {
	TierName   string          `json:"tier_name"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Minutes    int64           `json:"minutes"`
	Hours      decimal.Decimal `json:"hours"`
}

// ActualHoursBreakdown is the per-tier audit trail of worked time. It sits
// next to the billed estimate on an invoice; the two may differ by rounding.
type ActualHoursBreakdown struct {
	Tiers        []TierMinutes   `json:"tiers"`
	TotalMinutes int64           `json:"total_minutes"`
	TotalHours   decimal.Decimal `json:"total_hours"`
}
