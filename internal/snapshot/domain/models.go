// Package domain contains the billing snapshot: the frozen record of what
// was charged and the rate data used to compute it.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
	"gorm.io/datatypes"
)

// Snapshot freezes the full tier table used, the estimate computed at
// scheduling time and the actual-hours breakdown computed at completion.
// Written once at invoice generation and never recomputed: editing the
// rate card later must not change what this record says was charged.
type Snapshot struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID   `json:"organization_id" gorm:"column:org_id;not null;index"`
	WorkOrderID snowflake.ID   `json:"work_order_id" gorm:"column:work_order_id;not null;index"`
	RateTable   datatypes.JSON `json:"rate_table" gorm:"not null"`
	Estimate    datatypes.JSON `json:"estimate" gorm:"not null"`
	ActualHours datatypes.JSON `json:"actual_hours" gorm:"not null"`
	Checksum    string         `json:"checksum" gorm:"type:text;not null;uniqueIndex:ux_billing_snapshots_checksum"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Snapshot) TableName() string { return "billing_snapshots" }

// Writer persists snapshots append-only. Writing the same content twice is
// a no-op keyed on the checksum, so reconcile retries stay idempotent.
type Writer interface {
	Write(ctx context.Context, snapshot *Snapshot) error
}

// Reader loads persisted snapshots for display and audit.
type Reader interface {
	ByWorkOrder(ctx context.Context, orgID, workOrderID snowflake.ID) (*Snapshot, error)
}

// FreezeRequest carries everything a snapshot captures. The tier table is
// the one the estimate was computed with; callers must not reload it
// between estimating and freezing.
type FreezeRequest struct {
	OrgID       snowflake.ID
	WorkOrderID snowflake.ID
	Tiers       *ratecarddomain.TierTable
	Estimate    *ratingdomain.CostEstimate
	ActualHours ratingdomain.ActualHoursBreakdown
}

// Service assembles and persists snapshots.
type Service interface {
	Freeze(ctx context.Context, req FreezeRequest) (*Snapshot, error)
	ByWorkOrder(ctx context.Context, orgID, workOrderID snowflake.ID) (*Snapshot, error)
}

var (
	ErrMissingEstimate = errors.New("missing_estimate")
	ErrMissingTiers    = errors.New("missing_tiers")
)
