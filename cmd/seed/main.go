package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	product "github.com/shivshakti/boutique-backend/internal/products"
	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/db"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	skipMigrate := flag.Bool("skip-migrate", false, "do not apply pending migrations first")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if !*skipMigrate {
		sqlDB, err := dbClient.DB().DB()
		requireResource(ctx, logg, "sql database", err)
		if err := migrate.Run(ctx, sqlDB, *dir, "up", os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "goose up failed: %v\n", err)
			os.Exit(1)
		}
	}

	repo := product.NewRepository(dbClient.DB())
	svc, err := product.NewService(product.ServiceParams{
		Repo:          repo,
		MaxImageBytes: cfg.Media.MaxUploadBytes(),
		Logger:        logg,
	})
	requireResource(ctx, logg, "products service", err)

	created, err := product.Seed(ctx, svc, repo)
	if err != nil {
		logg.Error(ctx, "seeding failed", err)
		os.Exit(1)
	}
	if created == 0 {
		logg.Info(ctx, "catalog already populated, nothing seeded")
		return
	}
	logg.Info(logg.WithField(ctx, "count", created), "products seeded")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
