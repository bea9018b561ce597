package seed

import (
	"github.com/smallbiznis/fieldrate/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(db *gorm.DB, cfg config.Config) error {
		// Cloud installs provision real tenants; demo data is for
		// self-hosted first runs only.
		if cfg.IsCloud() {
			return nil
		}
		if cfg.DefaultOrgID != 0 {
			return EnsureDemoOrgWithID(db, cfg.DefaultOrgID)
		}
		return EnsureDemoData(db)
	}),
)
