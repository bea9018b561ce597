package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ratecarddomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tier *ratecarddomain.RateTier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rate_tiers (
			id, org_id, name, level, day_of_week, start_minute, end_minute,
			multiplier, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tier.ID,
		tier.OrgID,
		tier.Name,
		tier.Level,
		int(tier.DayOfWeek),
		tier.StartMinute,
		tier.EndMinute,
		tier.Multiplier,
		tier.CreatedAt,
		tier.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*ratecarddomain.RateTier, error) {
	var tier ratecarddomain.RateTier
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, level, day_of_week, start_minute, end_minute,
		 multiplier, created_at, updated_at
		 FROM rate_tiers WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&tier).Error
	if err != nil {
		return nil, err
	}
	if tier.ID == 0 {
		return nil, nil
	}
	return &tier, nil
}

func (r *repo) ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]ratecarddomain.RateTier, error) {
	var items []ratecarddomain.RateTier
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, level, day_of_week, start_minute, end_minute,
		 multiplier, created_at, updated_at
		 FROM rate_tiers WHERE org_id = ? ORDER BY day_of_week ASC, start_minute ASC`,
		orgID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM rate_tiers WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Error
}
