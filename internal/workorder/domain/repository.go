package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *WorkOrder) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*WorkOrder, error)
	InsertTimeEntry(ctx context.Context, db *gorm.DB, entry *TimeEntry) error
	TimeEntries(ctx context.Context, db *gorm.DB, orgID, workOrderID snowflake.ID) ([]TimeEntry, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, from, to WorkOrderStatus) (bool, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidInterval     = errors.New("invalid_interval")
	ErrInvalidTimeEntry    = errors.New("invalid_time_entry")
	ErrNotFound            = errors.New("not_found")
	ErrDocumentUnavailable = errors.New("document_unavailable")
)
