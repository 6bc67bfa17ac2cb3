package ratingmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding rating ledger indexes...")

		statements := []string{
			// Baseline lookup and propagation range scans.
			"CREATE INDEX IF NOT EXISTS idx_rating_ledger_user_event_played ON rating_ledger (user_id, event_id, played_at)",
			// Reversal.
			"CREATE INDEX IF NOT EXISTS idx_rating_ledger_game_id ON rating_ledger (game_id)",
			// Period sums.
			"CREATE INDEX IF NOT EXISTS idx_rating_ledger_event_played ON rating_ledger (event_id, played_at)",
			"CREATE INDEX IF NOT EXISTS idx_rating_matches_event_id ON rating_matches (event_id)",
			"CREATE INDEX IF NOT EXISTS idx_rating_match_participants_user_id ON rating_match_participants (user_id)",
		}
		for _, stmt := range statements {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Rating ledger indexes added successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rating ledger indexes...")

		for _, idx := range []string{
			"idx_rating_match_participants_user_id",
			"idx_rating_matches_event_id",
			"idx_rating_ledger_event_played",
			"idx_rating_ledger_game_id",
			"idx_rating_ledger_user_event_played",
		} {
			if _, err := db.NewRaw("DROP INDEX IF EXISTS " + idx).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
