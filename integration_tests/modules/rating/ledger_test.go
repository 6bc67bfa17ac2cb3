package ratingintegrationtests

import (
	"errors"
	"testing"
	"time"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyRatings(t *testing.T, deps TestDeps, userID, eventID int64) []float64 {
	t.Helper()
	history, err := deps.Service.RatingHistory(deps.Ctx, userID, eventID)
	require.NoError(t, err)
	out := make([]float64, 0, len(history))
	for _, h := range history {
		out = append(out, h.Rating)
	}
	return out
}

func TestLedger_BackdatedApplyAndReverse(t *testing.T) {
	deps := SetupTestRatingService(t)
	eventID := insertEvent(t, deps, "Winter League")

	m1 := match(eventID, baseTime.Add(time.Hour), 40000, 35000, 25000, 20000)
	m2 := match(eventID, baseTime.Add(3*time.Hour), 20000, 25000, 35000, 40000)
	backdated := match(eventID, baseTime, 25000, 40000, 20000, 35000)

	for _, m := range []ratingdomain.Match{m1, m2, backdated} {
		_, err := deps.Service.ApplyMatch(deps.Ctx, m, leagueRules)
		require.NoError(t, err)
	}

	assert.Equal(t, []float64{1490, 1515, 1490}, historyRatings(t, deps, 1, eventID))
	assert.Equal(t, []float64{1525, 1535, 1525}, historyRatings(t, deps, 2, eventID))

	report, err := deps.Service.VerifyLedger(deps.Ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 4, report.UsersChecked)
	assert.Equal(t, 12, report.EntriesChecked)

	require.NoError(t, deps.Service.ReverseMatch(deps.Ctx, backdated))
	assert.Equal(t, []float64{1525, 1500}, historyRatings(t, deps, 1, eventID))
	assert.Equal(t, []float64{1510, 1500}, historyRatings(t, deps, 2, eventID))

	_, err = deps.Service.VerifyLedger(deps.Ctx, eventID)
	require.NoError(t, err)
}

func TestLedger_PeriodChangesAndStandings(t *testing.T) {
	deps := SetupTestRatingService(t)
	eventID := insertEvent(t, deps, "Winter League")

	matches := []ratingdomain.Match{
		match(eventID, baseTime, 25000, 40000, 20000, 35000),
		match(eventID, baseTime.Add(time.Hour), 40000, 35000, 25000, 20000),
		match(eventID, baseTime.Add(3*time.Hour), 20000, 25000, 35000, 40000),
	}
	for _, m := range matches {
		recordMatch(t, deps, m)
		_, err := deps.Service.ApplyMatch(deps.Ctx, m, leagueRules)
		require.NoError(t, err)
	}

	totals, err := deps.Service.TotalChangeDuringPeriod(deps.Ctx, eventID, baseTime, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{1: 15, 2: 35, 3: -35, 4: -15}, totals, "both bounds are inclusive")

	standings, err := deps.Service.RankedStandings(deps.Ctx, eventID)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	assert.Equal(t, int64(2), standings[0].UserID)
	assert.Equal(t, 1525.0, standings[0].Rating)
	assert.Equal(t, 4, standings[3].Rank)

	result, err := deps.Service.Stats(deps.Ctx, 1, eventID)
	require.NoError(t, err)
	require.True(t, result.IsSuccess(), "failure: %v", result.Failure)
	stats := *result.Success
	assert.Equal(t, 3, stats.GamesPlayed)
	assert.True(t, stats.HasMinimumGames)
	assert.Equal(t, 100.0, stats.EventGamesPct)
	var sum float64
	for _, pct := range stats.PlacementPercentages {
		sum += pct
	}
	assert.InDelta(t, 100, sum, 1e-9)

	changes, err := deps.Service.MatchChanges(deps.Ctx, eventID, matches[1].ID)
	require.NoError(t, err)
	require.Len(t, changes, 4)
	assert.Equal(t, 25.0, changes[0].Change)
	assert.Equal(t, 1515.0, changes[0].Rating)

	export, err := deps.Service.ExportStandings(deps.Ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(export[:2]))
}

func TestLedger_FailedReverseRollsBack(t *testing.T) {
	deps := SetupTestRatingService(t)
	eventID := insertEvent(t, deps, "Winter League")

	m := match(eventID, baseTime, 40000, 35000, 25000, 20000)
	_, err := deps.Service.ApplyMatch(deps.Ctx, m, leagueRules)
	require.NoError(t, err)

	wrong := m
	wrong.Participants = append([]ratingdomain.Participant{}, m.Participants[:3]...)
	wrong.Participants = append(wrong.Participants, ratingdomain.Participant{UserID: 99, Points: 20000})

	err = deps.Service.ReverseMatch(deps.Ctx, wrong)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ratingservice.ErrInternalConsistency))

	ratings, err := deps.Service.CurrentRatings(deps.Ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, ratings, 4, "the failed reversal must not delete anything")
}

func TestLedger_SharedTimestampGroupChainsForward(t *testing.T) {
	deps := SetupTestRatingService(t)
	eventID := insertEvent(t, deps, "Winter League")

	for _, m := range []ratingdomain.Match{
		match(eventID, baseTime, 40000, 35000, 25000, 20000),
		match(eventID, baseTime, 35000, 40000, 20000, 25000),
	} {
		_, err := deps.Service.ApplyMatch(deps.Ctx, m, leagueRules)
		require.NoError(t, err)
	}

	ratings, err := deps.Service.CurrentRatings(deps.Ctx, eventID)
	require.NoError(t, err)
	current := map[int64]float64{}
	for _, r := range ratings {
		current[r.UserID] = r.Rating
	}
	assert.Equal(t, map[int64]float64{1: 1535, 2: 1535, 3: 1465, 4: 1465}, current)

	changes, err := deps.Service.ApplyMatch(deps.Ctx, match(eventID, baseTime.Add(time.Hour), 40000, 35000, 25000, 20000), leagueRules)
	require.NoError(t, err)
	after := map[int64]float64{}
	for _, c := range changes {
		after[c.UserID] = c.Rating
	}
	assert.Equal(t, map[int64]float64{1: 1560, 2: 1545, 3: 1455, 4: 1440}, after)

	report, err := deps.Service.VerifyLedger(deps.Ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, report.Violations)
	assert.Equal(t, 4, report.SharedTimestamps)
}
