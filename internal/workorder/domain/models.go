// Package domain contains the scheduling entities the cost engine reads.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type WorkOrderStatus string

const (
	WorkOrderStatusScheduled   WorkOrderStatus = "scheduled"
	WorkOrderStatusCompleted   WorkOrderStatus = "completed"
	WorkOrderStatusSnapshotted WorkOrderStatus = "snapshotted"
)

// WorkOrder is one scheduled technician visit. StartMinute/EndMinute are
// minutes from midnight on ServiceDate; BaseRate is the hourly rate of the
// service category at scheduling time.
type WorkOrder struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID        snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index"`
	ClientName   string            `json:"client_name" gorm:"type:text;not null"`
	ServiceDate  time.Time         `json:"service_date" gorm:"not null;index"`
	StartMinute  int               `json:"start_minute" gorm:"type:smallint;not null"`
	EndMinute    int               `json:"end_minute" gorm:"type:smallint;not null"`
	BaseRate     decimal.Decimal   `json:"base_rate" gorm:"type:numeric(12,2);not null"`
	CategoryName string            `json:"category_name" gorm:"type:text;not null"`
	FirstRequest bool              `json:"first_request" gorm:"not null;default:false"`
	Status       WorkOrderStatus   `json:"status" gorm:"type:text;not null;default:'scheduled';index"`
	DeviceCount  int64             `json:"device_count" gorm:"type:bigint;not null;default:0"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (WorkOrder) TableName() string { return "work_orders" }

// TimeEntry is one clock-in/clock-out pair from a technician's log on a
// work order. Times are UTC.
type TimeEntry struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;index"`
	WorkOrderID snowflake.ID `json:"work_order_id" gorm:"column:work_order_id;not null;index"`
	StartAt     time.Time    `json:"start_at" gorm:"not null"`
	EndAt       time.Time    `json:"end_at" gorm:"not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TimeEntry) TableName() string { return "time_entries" }
