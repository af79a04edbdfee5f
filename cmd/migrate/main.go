package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"
	"strings"

	"lexguard-backend/internal/shared/storage/db"
	"lexguard-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	ctx := context.Background()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, databaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"err": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"err": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", nil)
}
