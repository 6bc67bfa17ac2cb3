package ratingservice

import (
	"context"
	"errors"
	"fmt"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/attr"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/uptrace/bun"
)

// ReverseMatch removes the match from every participant's ledger.
func (s *RatingService) ReverseMatch(ctx context.Context, match ratingdomain.Match) error {
	reverseTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
		return s.reverseMatchLogic(ctx, db, match)
	}

	result, err := withTelemetry(s, ctx, "ReverseMatch", match.ID.String(), func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		return runInTx(s, ctx, reverseTx)
	})
	_, err = unwrap(result, err)
	return err
}

// ReapplyMatch replaces an edited match: the previous version is reversed and
// the updated one applied in the same transaction.
func (s *RatingService) ReapplyMatch(ctx context.Context, previous, updated ratingdomain.Match, rules ratingdomain.RuleSet) ([]RatingChange, error) {
	reapplyTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[[]RatingChange, error], error) {
		if _, err := s.reverseMatchLogic(ctx, db, previous); err != nil {
			return results.OperationResult[[]RatingChange, error]{}, fmt.Errorf("failed to reverse previous version: %w", err)
		}
		return s.applyMatchLogic(ctx, db, updated, rules)
	}

	result, err := withTelemetry(s, ctx, "ReapplyMatch", updated.ID.String(), func(ctx context.Context) (results.OperationResult[[]RatingChange, error], error) {
		return runInTx(s, ctx, reapplyTx)
	})
	return unwrap(result, err)
}

func (s *RatingService) reverseMatchLogic(ctx context.Context, db bun.IDB, match ratingdomain.Match) (results.OperationResult[struct{}, error], error) {
	s.logger.InfoContext(ctx, "Reversing match from rating ledger",
		attr.ExtractCorrelationID(ctx),
		attr.GameID(match.ID.String()),
		attr.EventID(match.EventID),
		attr.Int("participants", len(match.Participants)),
	)

	var shifted int64
	for _, p := range match.Participants {
		entry, err := s.repo.GetEntry(ctx, db, p.UserID, match.EventID, match.ID)
		if err != nil {
			if errors.Is(err, ratingdb.ErrNotFound) {
				return results.OperationResult[struct{}, error]{}, s.consistencyFailure(ctx, "ReverseMatch",
					fmt.Errorf("%w: no ledger entry for user %d in event %d game %s", ErrInternalConsistency, p.UserID, match.EventID, match.ID))
			}
			return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to load ledger entry for user %d: %w", p.UserID, err)
		}

		n, err := s.repo.ShiftRunningAfter(ctx, db, p.UserID, match.EventID, entry.PlayedAt, -entry.RatingChange)
		if err != nil {
			return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to reverse propagation for user %d: %w", p.UserID, err)
		}
		shifted += n
	}

	deleted, err := s.repo.DeleteEntriesForGame(ctx, db, match.ID)
	if err != nil {
		return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to delete ledger entries: %w", err)
	}
	if deleted != int64(len(match.Participants)) {
		// Rows for users outside the participant list were never reverse-propagated.
		return results.OperationResult[struct{}, error]{}, s.consistencyFailure(ctx, "ReverseMatch",
			fmt.Errorf("%w: game %s had %d ledger entries for %d participants", ErrInternalConsistency, match.ID, deleted, len(match.Participants)))
	}

	if s.metrics != nil {
		s.metrics.RecordLedgerEntriesWritten(ctx, "ReverseMatch", -deleted)
		s.metrics.RecordRunningRatingsShifted(ctx, "ReverseMatch", shifted)
	}

	return results.SuccessResult[struct{}, error](struct{}{}), nil
}

func (s *RatingService) consistencyFailure(ctx context.Context, operation string, err error) error {
	s.logger.ErrorContext(ctx, "Rating ledger is inconsistent with match history",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operation),
		attr.Error(err),
	)
	if s.metrics != nil {
		s.metrics.RecordConsistencyFailure(ctx, operation)
	}
	return err
}
