package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PricingRange is one band of the graduated per-device subscription price.
// Units are numbered from 1; StartUnit and EndUnit are both inclusive. A nil
// EndUnit marks the final unbounded band.
type PricingRange struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID    `json:"organization_id" gorm:"column:org_id;not null;index"`
	StartUnit   int64           `json:"start_unit" gorm:"type:bigint;not null"`
	EndUnit     *int64          `json:"end_unit,omitempty" gorm:"type:bigint"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Description string          `json:"description" gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PricingRange) TableName() string { return "pricing_ranges" }

// Label returns the display name of the band, falling back to the unit span.
func (r PricingRange) Label() string {
	if r.Description != "" {
		return r.Description
	}
	if r.EndUnit == nil {
		return fmt.Sprintf("%d+", r.StartUnit)
	}
	return fmt.Sprintf("%d-%d", r.StartUnit, *r.EndUnit)
}
