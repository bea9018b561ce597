package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tier *RateTier) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*RateTier, error)
	ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]RateTier, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
