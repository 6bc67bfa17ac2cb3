package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	ratingqueue "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/queue"
	ratingmigrations "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories/migrations"
)

var ratingTables = []string{"rating_ledger", "rating_match_participants", "rating_matches", "rating_events"}

func runMigrations(ctx context.Context, db *bun.DB, dsn string) error {
	migrator := migrate.NewMigrator(db, ratingmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run rating migrations: %w", err)
	}
	log.Printf("Ran rating migrations group %s", group)

	n, err := ratingqueue.MigrateRiver(ctx, dsn)
	if err != nil {
		return err
	}
	log.Printf("Ran %d River migrations", n)
	return nil
}

func truncateTables(ctx context.Context, db bun.IDB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(ratingTables, ", ")+" RESTART IDENTITY CASCADE")
	return err
}
