package ratingservice

import (
	"context"
	"fmt"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/attr"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/uptrace/bun"
)

// ApplyMatch records the match in every participant's ledger.
func (s *RatingService) ApplyMatch(ctx context.Context, match ratingdomain.Match, rules ratingdomain.RuleSet) ([]RatingChange, error) {
	applyTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[[]RatingChange, error], error) {
		return s.applyMatchLogic(ctx, db, match, rules)
	}

	result, err := withTelemetry(s, ctx, "ApplyMatch", match.ID.String(), func(ctx context.Context) (results.OperationResult[[]RatingChange, error], error) {
		return runInTx(s, ctx, applyTx)
	})
	return unwrap(result, err)
}

func (s *RatingService) applyMatchLogic(ctx context.Context, db bun.IDB, match ratingdomain.Match, rules ratingdomain.RuleSet) (results.OperationResult[[]RatingChange, error], error) {
	playedAt := ledgerTime(match.PlayedAt)
	deltas := ratingdomain.ComputeDeltas(match.Participants, rules)

	changes := make([]RatingChange, 0, len(deltas))
	var shifted int64
	for _, d := range deltas {
		baseline := rules.BaselineRating()
		prev, found, err := s.repo.RatingBefore(ctx, db, d.UserID, match.EventID, playedAt)
		if err != nil {
			return results.OperationResult[[]RatingChange, error]{}, fmt.Errorf("failed to load baseline for user %d: %w", d.UserID, err)
		}
		if found {
			baseline = prev
		}

		same, err := s.repo.CountEntriesAt(ctx, db, d.UserID, match.EventID, playedAt)
		if err != nil {
			return results.OperationResult[[]RatingChange, error]{}, fmt.Errorf("failed to check timestamp collision for user %d: %w", d.UserID, err)
		}
		if same > 0 {
			// Entries at one timestamp neither chain from nor shift each other.
			s.logger.WarnContext(ctx, "Ledger entry shares its timestamp with an existing entry",
				attr.ExtractCorrelationID(ctx),
				attr.UserID(d.UserID),
				attr.EventID(match.EventID),
				attr.GameID(match.ID.String()),
				attr.Time("played_at", playedAt),
				attr.Int("existing", same),
			)
			if s.metrics != nil {
				s.metrics.RecordSharedTimestamp(ctx)
			}
		}

		entry := &ratingdb.LedgerEntry{
			UserID:        d.UserID,
			EventID:       match.EventID,
			GameID:        match.ID,
			RatingChange:  d.Change,
			RunningRating: baseline + d.Change,
			PlayedAt:      playedAt,
		}
		if err := s.repo.InsertEntry(ctx, db, entry); err != nil {
			return results.OperationResult[[]RatingChange, error]{}, fmt.Errorf("failed to insert ledger entry for user %d: %w", d.UserID, err)
		}

		n, err := s.repo.ShiftRunningAfter(ctx, db, d.UserID, match.EventID, playedAt, d.Change)
		if err != nil {
			return results.OperationResult[[]RatingChange, error]{}, fmt.Errorf("failed to propagate change for user %d: %w", d.UserID, err)
		}
		shifted += n

		changes = append(changes, RatingChange{
			UserID: d.UserID,
			Points: d.Points,
			Uma:    d.Uma,
			Change: ratingdomain.Descale(d.Change),
			Rating: ratingdomain.Descale(entry.RunningRating),
		})
	}

	if s.metrics != nil {
		s.metrics.RecordLedgerEntriesWritten(ctx, "ApplyMatch", int64(len(deltas)))
		s.metrics.RecordRunningRatingsShifted(ctx, "ApplyMatch", shifted)
	}

	return results.SuccessResult[[]RatingChange, error](changes), nil
}
