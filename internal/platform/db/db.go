package db

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fatflowers/paygate/internal/models"
	cfgpkg "github.com/fatflowers/paygate/pkg/config"
	gormzap "github.com/fatflowers/paygate/pkg/gormlog"
)

// Open connects with the configured driver. sqlite is meant for local runs
// and tests; it is limited to a single connection because the ledger relies
// on serialized writers.
func Open(l *zap.SugaredLogger, cfg cfgpkg.DBConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}
	gcfg := &gorm.Config{Logger: gormzap.New(l)}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, gcfg)
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	l.Infow("connected to database", "driver", dialector.Name())
	return gdb, nil
}

func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	return Open(l, cfg.Database)
}

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Invoke(AutoMigrate),
	fx.Invoke(registerDBClose),
)

// Tables lists every model owned by the service, in migration order.
var Tables = []any{
	&models.Wallet{},
	&models.WalletTransaction{},
	&models.PaymentTransaction{},
	&models.PaymentCallbackLog{},
}

// AutoMigrate runs GORM migrations on startup
func AutoMigrate(l *zap.SugaredLogger, gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(Tables...); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing database connection pool")
			return sqlDB.Close()
		},
	})
}
