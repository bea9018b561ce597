package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, band *PricingRange) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*PricingRange, error)
	ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]PricingRange, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
