package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RateTier is a named rate window for one day of the week. Windows are
// half-open: StartMinute is inclusive, EndMinute is exclusive.
type RateTier struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID    `json:"organization_id" gorm:"column:org_id;not null;index"`
	Name        string          `json:"name" gorm:"type:text;not null"`
	Level       int16           `json:"level" gorm:"type:smallint;not null;default:0"`
	DayOfWeek   time.Weekday    `json:"day_of_week" gorm:"type:smallint;not null;index"`
	StartMinute int             `json:"start_minute" gorm:"type:smallint;not null"`
	EndMinute   int             `json:"end_minute" gorm:"type:smallint;not null"`
	Multiplier  decimal.Decimal `json:"multiplier" gorm:"type:numeric(8,4);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RateTier) TableName() string { return "rate_tiers" }

// Contains reports whether the minute of day falls inside the tier window.
func (t RateTier) Contains(minuteOfDay int) bool {
	return minuteOfDay >= t.StartMinute && minuteOfDay < t.EndMinute
}
