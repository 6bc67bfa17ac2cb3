package ratingservice

import (
	"context"
	"errors"
	"fmt"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MatchChanges returns each participant's change and resulting rating for a
// rated match, in finishing order. Changes come from the ledger; points and uma
// are recomputed from the event's rules.
func (s *RatingService) MatchChanges(ctx context.Context, eventID int64, matchID uuid.UUID) ([]RatingChange, error) {
	result, err := withTelemetry(s, ctx, "MatchChanges", matchID.String(), func(ctx context.Context) (results.OperationResult[[]RatingChange, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]RatingChange, error], error) {
			return s.matchChangesLogic(ctx, db, eventID, matchID)
		})
	})
	return unwrap(result, err)
}

func (s *RatingService) matchChangesLogic(ctx context.Context, db bun.IDB, eventID int64, matchID uuid.UUID) (results.OperationResult[[]RatingChange, error], error) {
	notFound := results.FailureResult[[]RatingChange, error](fmt.Errorf("%w: %s", ErrMatchNotFound, matchID))

	stored, err := s.repo.GetMatch(ctx, db, matchID)
	if err != nil {
		if errors.Is(err, ratingdb.ErrNotFound) {
			return notFound, nil
		}
		return results.OperationResult[[]RatingChange, error]{}, fmt.Errorf("failed to load match: %w", err)
	}
	if stored.EventID != eventID {
		return notFound, nil
	}

	event, err := s.loadEvent(ctx, db, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return results.FailureResult[[]RatingChange, error](err), nil
		}
		return results.OperationResult[[]RatingChange, error]{}, err
	}

	match := stored.ToDomain()
	deltas := ratingdomain.ComputeDeltas(match.Participants, event.Rules())

	changes := make([]RatingChange, 0, len(deltas))
	for _, d := range deltas {
		entry, err := s.repo.GetEntry(ctx, db, d.UserID, eventID, matchID)
		if errors.Is(err, ratingdb.ErrNotFound) {
			continue
		}
		if err != nil {
			return results.OperationResult[[]RatingChange, error]{}, fmt.Errorf("failed to load ledger entry for user %d: %w", d.UserID, err)
		}
		changes = append(changes, RatingChange{
			UserID: d.UserID,
			Points: d.Points,
			Uma:    d.Uma,
			Change: ratingdomain.Descale(entry.RatingChange),
			Rating: ratingdomain.Descale(entry.RunningRating),
		})
	}

	switch len(changes) {
	case 0:
		// Recorded but not rated yet.
		return notFound, nil
	case len(deltas):
		return results.SuccessResult[[]RatingChange, error](changes), nil
	default:
		return results.OperationResult[[]RatingChange, error]{}, s.consistencyFailure(ctx, "MatchChanges",
			fmt.Errorf("%w: match %s has ledger entries for %d of %d participants",
				ErrInternalConsistency, matchID, len(changes), len(deltas)))
	}
}
