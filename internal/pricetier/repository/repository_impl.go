package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	pricetierdomain "github.com/smallbiznis/fieldrate/internal/pricetier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricetierdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, band *pricetierdomain.PricingRange) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pricing_ranges (
			id, org_id, start_unit, end_unit, unit_price, description, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		band.ID,
		band.OrgID,
		band.StartUnit,
		band.EndUnit,
		band.UnitPrice,
		band.Description,
		band.CreatedAt,
		band.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*pricetierdomain.PricingRange, error) {
	var band pricetierdomain.PricingRange
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, start_unit, end_unit, unit_price, description, created_at, updated_at
		 FROM pricing_ranges WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&band).Error
	if err != nil {
		return nil, err
	}
	if band.ID == 0 {
		return nil, nil
	}
	return &band, nil
}

func (r *repo) ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]pricetierdomain.PricingRange, error) {
	var items []pricetierdomain.PricingRange
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, start_unit, end_unit, unit_price, description, created_at, updated_at
		 FROM pricing_ranges WHERE org_id = ? ORDER BY start_unit ASC`,
		orgID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM pricing_ranges WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Error
}
