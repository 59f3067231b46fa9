package migrate

import (
	"context"
	"fmt"
	"os"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/db"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot in dev when BOUTIQUE_AUTO_MIGRATE
// is set. SQLite databases are skipped since the SQL targets Postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.DB.Driver == db.DriverSQLite {
		logg.Warn(ctx, "skipping goose migrations for sqlite database")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "migrate.autorun.start")

	if err := Run(ctx, sqlDB, DefaultDir, "up", os.Stdout); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "migrate.autorun.complete")
	return nil
}
