package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, organizationID string) ([]Response, error)
	Delete(ctx context.Context, organizationID string, id string) error
	TableForOrg(ctx context.Context, organizationID string) (*TierTable, error)
}

type CreateRequest struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Level          int16  `json:"level"`
	DayOfWeek      int    `json:"day_of_week"`
	StartMinute    int    `json:"start_minute"`
	EndMinute      int    `json:"end_minute"`
	Multiplier     string `json:"multiplier"`
}

type Response struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Level          int16     `json:"level"`
	DayOfWeek      int       `json:"day_of_week"`
	StartMinute    int       `json:"start_minute"`
	EndMinute      int       `json:"end_minute"`
	Multiplier     string    `json:"multiplier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTierName     = errors.New("invalid_tier_name")
	ErrInvalidDayOfWeek    = errors.New("invalid_day_of_week")
	ErrInvalidTimeWindow   = errors.New("invalid_time_window")
	ErrInvalidMultiplier   = errors.New("invalid_multiplier")
	ErrOverlappingTiers    = errors.New("overlapping_tiers")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
