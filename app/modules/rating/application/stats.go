package ratingservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/attr"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type statsResult = results.OperationResult[*ratingdomain.UserEventStats, error]

// Stats aggregates a user's games in an event. A user without games yields a
// failure result carrying ErrNoParticipation, never a zero-filled record.
func (s *RatingService) Stats(ctx context.Context, userID, eventID int64) (statsResult, error) {
	statsTx := func(ctx context.Context, db bun.IDB) (statsResult, error) {
		return s.statsLogic(ctx, db, userID, eventID)
	}
	return withTelemetry(s, ctx, "Stats", strconv.FormatInt(userID, 10), func(ctx context.Context) (statsResult, error) {
		return runInReadTx(s, ctx, statsTx)
	})
}

func (s *RatingService) statsLogic(ctx context.Context, db bun.IDB, userID, eventID int64) (statsResult, error) {
	event, err := s.loadEvent(ctx, db, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return results.FailureResult[*ratingdomain.UserEventStats, error](err), nil
		}
		return statsResult{}, err
	}
	rules := event.Rules()

	matches, err := s.repo.ListUserMatches(ctx, db, userID, eventID)
	if err != nil {
		return statsResult{}, fmt.Errorf("failed to load matches: %w", err)
	}
	if len(matches) == 0 {
		return results.FailureResult[*ratingdomain.UserEventStats, error](ErrNoParticipation), nil
	}

	entries, err := s.repo.ListEntriesForUser(ctx, db, userID, eventID)
	if err != nil {
		return statsResult{}, fmt.Errorf("failed to load ledger entries: %w", err)
	}
	changes := make(map[uuid.UUID]int64, len(entries))
	for _, e := range entries {
		changes[e.GameID] = e.RatingChange
	}

	games := make([]ratingdomain.GameRecord, 0, len(matches))
	for _, m := range matches {
		match := m.ToDomain()
		var points int64
		for _, p := range match.Participants {
			if p.UserID == userID {
				points = p.Points
			}
		}
		change, ok := changes[match.ID]
		if !ok {
			s.logger.WarnContext(ctx, "Match has no ledger entry yet, counting zero rating change",
				attr.ExtractCorrelationID(ctx),
				attr.UserID(userID),
				attr.EventID(eventID),
				attr.GameID(match.ID.String()),
			)
		}
		games = append(games, ratingdomain.GameRecord{
			Points:    points,
			Placement: ratingdomain.Placement(userID, match.Participants),
			Change:    change,
		})
	}

	eventGames, err := s.repo.CountEventMatches(ctx, db, eventID)
	if err != nil {
		return statsResult{}, fmt.Errorf("failed to count event matches: %w", err)
	}

	stats, ok := ratingdomain.AggregateStats(games, eventGames, rules)
	if !ok {
		return results.FailureResult[*ratingdomain.UserEventStats, error](ErrNoParticipation), nil
	}
	stats.UserID = userID
	stats.EventID = eventID

	stats.CurrentRating = float64(rules.StartingRating)
	if n := len(entries); n > 0 {
		stats.CurrentRating = ratingdomain.Descale(entries[n-1].RunningRating)
	}

	standings, err := s.standingsLogic(ctx, db, eventID)
	if err != nil {
		return statsResult{}, err
	}
	for _, st := range standings {
		if st.UserID == userID {
			stats.Rank = st.Rank
			break
		}
	}

	return results.SuccessResult[*ratingdomain.UserEventStats, error](&stats), nil
}
