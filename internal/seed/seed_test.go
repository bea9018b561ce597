package seed

import (
	"testing"

	"github.com/glebarez/sqlite"
	organizationdomain "github.com/smallbiznis/fieldrate/internal/organization/domain"
	pricetierdomain "github.com/smallbiznis/fieldrate/internal/pricetier/domain"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&organizationdomain.Organization{},
		&ratecarddomain.RateTier{},
		&pricetierdomain.PricingRange{},
	))
	return db
}

func TestEnsureDemoDataIsIdempotent(t *testing.T) {
	db := openSeedDB(t)

	require.NoError(t, EnsureDemoData(db))
	require.NoError(t, EnsureDemoData(db))

	var orgs, tiers, ranges int64
	require.NoError(t, db.Model(&organizationdomain.Organization{}).Count(&orgs).Error)
	require.NoError(t, db.Model(&ratecarddomain.RateTier{}).Count(&tiers).Error)
	require.NoError(t, db.Model(&pricetierdomain.PricingRange{}).Count(&ranges).Error)

	assert.Equal(t, int64(1), orgs)
	assert.Equal(t, int64(5*3+2), tiers)
	assert.Equal(t, int64(2), ranges)
}

func TestSeededRateCardValidates(t *testing.T) {
	db := openSeedDB(t)
	require.NoError(t, EnsureDemoData(db))

	var tiers []ratecarddomain.RateTier
	require.NoError(t, db.Find(&tiers).Error)

	_, err := ratecarddomain.NewTierTable(tiers)
	assert.NoError(t, err)
}

func TestSeededRangesValidate(t *testing.T) {
	db := openSeedDB(t)
	require.NoError(t, EnsureDemoData(db))

	var ranges []pricetierdomain.PricingRange
	require.NoError(t, db.Order("start_unit").Find(&ranges).Error)

	result := pricetierdomain.Validate(ranges)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}
