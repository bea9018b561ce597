// Package seed bootstraps a fresh installation with a demo organization,
// a weekday rate card and the default device pricing ranges, so estimates
// work before anyone has configured anything.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	organizationdomain "github.com/smallbiznis/fieldrate/internal/organization/domain"
	pricetierdomain "github.com/smallbiznis/fieldrate/internal/pricetier/domain"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	"gorm.io/gorm"
)

const (
	defaultOrgName = "Demo Field Services"
	defaultOrgSlug = "demo-field-services"
)

// EnsureDemoData seeds the demo tenant. Safe to run on every startup: each
// block checks for existing rows before inserting.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureDemoOrgTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensureRateCardTx(ctx, tx, node, org.ID); err != nil {
			return err
		}
		return ensurePricingRangesTx(ctx, tx, node, org.ID)
	})
}

// EnsureDemoOrgWithID seeds the demo tenant under a fixed ID, used when an
// installation pins DEFAULT_ORG.
func EnsureDemoOrgWithID(db *gorm.DB, orgID int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if orgID == 0 {
		return EnsureDemoData(db)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org organizationdomain.Organization
		err := tx.WithContext(ctx).Where("id = ?", orgID).First(&org).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			now := time.Now().UTC()
			org = organizationdomain.Organization{
				ID:        snowflake.ID(orgID),
				Name:      defaultOrgName,
				Slug:      defaultOrgSlug,
				Country:   "US",
				Currency:  "USD",
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
				return err
			}
		}
		if err := ensureRateCardTx(ctx, tx, node, org.ID); err != nil {
			return err
		}
		return ensurePricingRangesTx(ctx, tx, node, org.ID)
	})
}

func ensureDemoOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", defaultOrgSlug).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		Country:   "US",
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// ensureRateCardTx installs the default weekday card: standard business
// hours, premium evenings, emergency nights, double-time weekends.
func ensureRateCardTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&ratecarddomain.RateTier{}).
		Where("org_id = ?", orgID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	var tiers []ratecarddomain.RateTier
	for day := time.Monday; day <= time.Friday; day++ {
		tiers = append(tiers,
			ratecarddomain.RateTier{Name: "Standard", DayOfWeek: day, StartMinute: 8 * 60, EndMinute: 18 * 60, Multiplier: decimal.RequireFromString("1.0")},
			ratecarddomain.RateTier{Name: "Premium", DayOfWeek: day, StartMinute: 18 * 60, EndMinute: 22 * 60, Multiplier: decimal.RequireFromString("1.5")},
			ratecarddomain.RateTier{Name: "Emergency", DayOfWeek: day, StartMinute: 22 * 60, EndMinute: 24 * 60, Multiplier: decimal.RequireFromString("2.0")},
		)
	}
	for _, day := range []time.Weekday{time.Saturday, time.Sunday} {
		tiers = append(tiers,
			ratecarddomain.RateTier{Name: "Emergency", DayOfWeek: day, StartMinute: 0, EndMinute: 24 * 60, Multiplier: decimal.RequireFromString("2.0")},
		)
	}

	for i := range tiers {
		tiers[i].ID = node.Generate()
		tiers[i].OrgID = orgID
		tiers[i].CreatedAt = now
		tiers[i].UpdatedAt = now
	}
	return tx.WithContext(ctx).Create(&tiers).Error
}

// ensurePricingRangesTx installs the default graduated device plan: two
// free devices, then a flat per-device price.
func ensurePricingRangesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&pricetierdomain.PricingRange{}).
		Where("org_id = ?", orgID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	two := int64(2)
	ranges := []pricetierdomain.PricingRange{
		{StartUnit: 1, EndUnit: &two, UnitPrice: decimal.Zero, Description: "Free tier"},
		{StartUnit: 3, EndUnit: nil, UnitPrice: decimal.RequireFromString("9.99"), Description: "Per device"},
	}
	for i := range ranges {
		ranges[i].ID = node.Generate()
		ranges[i].OrgID = orgID
		ranges[i].CreatedAt = now
		ranges[i].UpdatedAt = now
	}
	return tx.WithContext(ctx).Create(&ranges).Error
}
