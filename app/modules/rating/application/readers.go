package ratingservice

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/uptrace/bun"
)

// EventRules returns the rule set stored on the event.
func (s *RatingService) EventRules(ctx context.Context, eventID int64) (ratingdomain.RuleSet, error) {
	result, err := withTelemetry(s, ctx, "EventRules", strconv.FormatInt(eventID, 10), func(ctx context.Context) (results.OperationResult[ratingdomain.RuleSet, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[ratingdomain.RuleSet, error], error) {
			event, err := s.loadEvent(ctx, db, eventID)
			if err != nil {
				if errors.Is(err, ErrEventNotFound) {
					return results.FailureResult[ratingdomain.RuleSet, error](err), nil
				}
				return results.OperationResult[ratingdomain.RuleSet, error]{}, err
			}
			return results.SuccessResult[ratingdomain.RuleSet, error](event.Rules()), nil
		})
	})
	return unwrap(result, err)
}

// CurrentRatings lists every user's latest rating in the event, highest first.
func (s *RatingService) CurrentRatings(ctx context.Context, eventID int64) ([]RatingView, error) {
	result, err := withTelemetry(s, ctx, "CurrentRatings", strconv.FormatInt(eventID, 10), func(ctx context.Context) (results.OperationResult[[]RatingView, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]RatingView, error], error) {
			views, err := s.currentRatingsLogic(ctx, db, eventID)
			if err != nil {
				return results.OperationResult[[]RatingView, error]{}, err
			}
			return results.SuccessResult[[]RatingView, error](views), nil
		})
	})
	return unwrap(result, err)
}

func (s *RatingService) currentRatingsLogic(ctx context.Context, db bun.IDB, eventID int64) ([]RatingView, error) {
	latest, err := s.repo.LatestEntriesForEvent(ctx, db, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest ratings: %w", err)
	}

	views := make([]RatingView, 0, len(latest))
	for _, e := range latest {
		views = append(views, RatingView{
			UserID:     e.UserID,
			Rating:     ratingdomain.Descale(e.RunningRating),
			LastPlayed: e.PlayedAt,
		})
	}
	slices.SortStableFunc(views, func(a, b RatingView) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return views, nil
}

// RatingHistory returns the user's rating after each game, oldest first.
// A user who never played gets an empty slice.
func (s *RatingService) RatingHistory(ctx context.Context, userID, eventID int64) ([]HistoryPoint, error) {
	result, err := withTelemetry(s, ctx, "RatingHistory", strconv.FormatInt(userID, 10), func(ctx context.Context) (results.OperationResult[[]HistoryPoint, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]HistoryPoint, error], error) {
			entries, err := s.repo.ListEntriesForUser(ctx, db, userID, eventID)
			if err != nil {
				return results.OperationResult[[]HistoryPoint, error]{}, fmt.Errorf("failed to load rating history: %w", err)
			}
			return results.SuccessResult[[]HistoryPoint, error](historyPoints(entries)), nil
		})
	})
	return unwrap(result, err)
}

func historyPoints(entries []*ratingdb.LedgerEntry) []HistoryPoint {
	points := make([]HistoryPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, HistoryPoint{
			GameID:   e.GameID,
			PlayedAt: e.PlayedAt,
			Rating:   ratingdomain.Descale(e.RunningRating),
			Change:   ratingdomain.Descale(e.RatingChange),
		})
	}
	return points
}

// TotalChangeDuringPeriod sums each user's rating changes with from <= played_at <= to.
// Users with no games in range are omitted.
func (s *RatingService) TotalChangeDuringPeriod(ctx context.Context, eventID int64, from, to time.Time) (map[int64]float64, error) {
	result, err := withTelemetry(s, ctx, "TotalChangeDuringPeriod", strconv.FormatInt(eventID, 10), func(ctx context.Context) (results.OperationResult[map[int64]float64, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[map[int64]float64, error], error) {
			rows, err := s.repo.SumChangesBetween(ctx, db, eventID, ledgerTime(from), ledgerTime(to))
			if err != nil {
				return results.OperationResult[map[int64]float64, error]{}, fmt.Errorf("failed to sum rating changes: %w", err)
			}
			totals := make(map[int64]float64, len(rows))
			for _, r := range rows {
				totals[r.UserID] = ratingdomain.Descale(r.Total)
			}
			return results.SuccessResult[map[int64]float64, error](totals), nil
		})
	})
	return unwrap(result, err)
}

// Standings maps each rated user to a 1-based rank. Equal ratings get distinct ranks.
func (s *RatingService) Standings(ctx context.Context, eventID int64) (map[int64]int, error) {
	ranked, err := s.RankedStandings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ranks := make(map[int64]int, len(ranked))
	for _, st := range ranked {
		ranks[st.UserID] = st.Rank
	}
	return ranks, nil
}

// RankedStandings is Standings in rank order, with ratings attached.
func (s *RatingService) RankedStandings(ctx context.Context, eventID int64) ([]Standing, error) {
	result, err := withTelemetry(s, ctx, "Standings", strconv.FormatInt(eventID, 10), func(ctx context.Context) (results.OperationResult[[]Standing, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]Standing, error], error) {
			standings, err := s.standingsLogic(ctx, db, eventID)
			if err != nil {
				return results.OperationResult[[]Standing, error]{}, err
			}
			return results.SuccessResult[[]Standing, error](standings), nil
		})
	})
	return unwrap(result, err)
}

func (s *RatingService) standingsLogic(ctx context.Context, db bun.IDB, eventID int64) ([]Standing, error) {
	views, err := s.currentRatingsLogic(ctx, db, eventID)
	if err != nil {
		return nil, err
	}
	standings := make([]Standing, len(views))
	for i, v := range views {
		standings[i] = Standing{Rank: i + 1, RatingView: v}
	}
	return standings, nil
}

func (s *RatingService) loadEvent(ctx context.Context, db bun.IDB, eventID int64) (*ratingdb.Event, error) {
	event, err := s.repo.GetEvent(ctx, db, eventID)
	if err != nil {
		if errors.Is(err, ratingdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return event, nil
}
