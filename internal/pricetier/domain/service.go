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

	// RangesForOrg loads and validates the full range set. A malformed set
	// fails the load; the calculator never sees it.
	RangesForOrg(ctx context.Context, organizationID string) ([]PricingRange, error)

	// PriceForDevices prices a device count against the org's range set.
	PriceForDevices(ctx context.Context, organizationID string, deviceCount int64) (*GraduatedCostResult, error)

	// MaxUnitsForOrg returns the highest billable device count for the
	// org, or nil when the last band is unbounded.
	MaxUnitsForOrg(ctx context.Context, organizationID string) (*int64, error)
}

type CreateRequest struct {
	OrganizationID string `json:"organization_id"`
	StartUnit      int64  `json:"start_unit"`
	EndUnit        *int64 `json:"end_unit"`
	UnitPrice      string `json:"unit_price"`
	Description    string `json:"description"`
}

type Response struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	StartUnit      int64     `json:"start_unit"`
	EndUnit        *int64    `json:"end_unit,omitempty"`
	UnitPrice      string    `json:"unit_price"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidUnitPrice    = errors.New("invalid_unit_price")
	ErrInvalidDeviceCount  = errors.New("invalid_device_count")
	ErrMalformedRangeSet   = errors.New("malformed_range_set")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
