package domain

import (
	"context"
	"io"
	"time"

	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	AddTimeEntry(ctx context.Context, req TimeEntryRequest) error
	Complete(ctx context.Context, organizationID, id string) error

	// Estimate prices the scheduled interval of a stored work order against
	// the org's current rate card. Draft orders missing required fields
	// yield (nil, nil).
	Estimate(ctx context.Context, organizationID, id string) (*ratingdomain.CostEstimate, error)

	// EstimateDocument renders the estimate as a PDF for client quotes.
	EstimateDocument(ctx context.Context, organizationID, id string) (io.Reader, error)
}

type CreateRequest struct {
	OrganizationID string `json:"organization_id"`
	ClientName     string `json:"client_name"`
	ServiceDate    string `json:"service_date"` // YYYY-MM-DD
	StartMinute    *int   `json:"start_minute"`
	EndMinute      *int   `json:"end_minute"`
	BaseRate       string `json:"base_rate"`
	CategoryName   string `json:"category_name"`
	FirstRequest   bool   `json:"first_request"`
	DeviceCount    int64  `json:"device_count"`
}

type TimeEntryRequest struct {
	OrganizationID string    `json:"organization_id"`
	WorkOrderID    string    `json:"work_order_id"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
}

type Response struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ClientName     string    `json:"client_name"`
	ServiceDate    string    `json:"service_date"`
	StartMinute    int       `json:"start_minute"`
	EndMinute      int       `json:"end_minute"`
	BaseRate       string    `json:"base_rate"`
	CategoryName   string    `json:"category_name"`
	FirstRequest   bool      `json:"first_request"`
	Status         string    `json:"status"`
	DeviceCount    int64     `json:"device_count"`
	CreatedAt      time.Time `json:"created_at"`
}
