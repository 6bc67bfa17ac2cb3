package ratingmigrations

import (
	"context"
	"fmt"

	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rating_events, rating_matches, rating_match_participants and rating_ledger tables...")

		models := []any{
			(*ratingdb.Event)(nil),
			(*ratingdb.Match)(nil),
			(*ratingdb.MatchParticipant)(nil),
			(*ratingdb.LedgerEntry)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		fmt.Println("Rating tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rating tables...")

		models := []any{
			(*ratingdb.LedgerEntry)(nil),
			(*ratingdb.MatchParticipant)(nil),
			(*ratingdb.Match)(nil),
			(*ratingdb.Event)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", model, err)
			}
		}

		fmt.Println("Rating tables dropped successfully!")
		return nil
	})
}
