package migration

import (
	organizationdomain "github.com/smallbiznis/fieldrate/internal/organization/domain"
	pricetierdomain "github.com/smallbiznis/fieldrate/internal/pricetier/domain"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	snapshotdomain "github.com/smallbiznis/fieldrate/internal/snapshot/domain"
	workorderdomain "github.com/smallbiznis/fieldrate/internal/workorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		// The embedded SQL targets postgres; other dialects (sqlite and
		// mysql installs) get the schema from gorm's AutoMigrate instead.
		if conn.Dialector.Name() != "postgres" {
			log.Info("using auto-migration", zap.String("dialect", conn.Dialector.Name()))
			return conn.AutoMigrate(
				&organizationdomain.Organization{},
				&ratecarddomain.RateTier{},
				&pricetierdomain.PricingRange{},
				&workorderdomain.WorkOrder{},
				&workorderdomain.TimeEntry{},
				&snapshotdomain.Snapshot{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
