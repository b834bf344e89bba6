package migration

import (
	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/smallbiznis/gstbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)

// Apply brings the schema up to date before any service handles traffic.
func Apply(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	log = log.Named("migration").With(zap.String("db_type", cfg.DBType))

	if cfg.DBType != db.TypePostgres {
		if err := AutoMigrate(conn); err != nil {
			return err
		}
		log.Info("schema auto-migrated")
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}
