package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/muhammadchandra19/tickstream/pkg/config"
	"github.com/muhammadchandra19/tickstream/pkg/migration"
	"github.com/muhammadchandra19/tickstream/pkg/postgres"
)

func main() {
	var (
		dir       = flag.String("dir", "migrations", "directory containing *.up.sql / *.down.sql files")
		direction = flag.String("direction", "up", "up or down")
		steps     = flag.Int("steps", 0, "number of migrations to apply, 0 for all")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	client, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	runner := migration.NewRunner(ctx, client, migration.Config{
		MigrationDir: *dir,
	})

	switch *direction {
	case "up":
		err = runner.MigrateUp(*steps)
	case "down":
		err = runner.MigrateDown(*steps)
	default:
		slog.Error("Unknown direction", "direction", *direction)
		os.Exit(1)
	}

	if err != nil {
		slog.Error("Migration failed", "direction", *direction, "error", err)
		os.Exit(1)
	}

	slog.Info("Migration complete", "direction", *direction)
}
