package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/db"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir DIR] <command> [arg]

commands:
  up               apply all pending migrations
  down             roll back the latest migration
  status           list applied and pending migrations
  version VERSION  migrate up or down to VERSION (YYYYMMDDHHMMSS)
  create NAME      write a new empty migration
  validate         check migration filenames and goose annotations
`

func main() {
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, arg := flag.Arg(0), flag.Arg(1)

	// create and validate work on the filesystem only.
	switch cmd {
	case "create":
		if arg == "" {
			fail("create needs a migration name")
		}
		path, err := migrate.CreateSQLMigration(*dir, arg)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fail("load config: %v", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": cmd,
		"dir": *dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "resource not working: database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "resource not working: sql database", err)
		os.Exit(1)
	}

	if err := run(ctx, sqlDB, *dir, cmd, arg); err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate complete")
}

func run(ctx context.Context, sqlDB *sql.DB, dir, cmd, arg string) error {
	switch cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, dir, cmd, os.Stdout)
	case "version":
		if arg == "" {
			return fmt.Errorf("version needs a target version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dir, arg)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
