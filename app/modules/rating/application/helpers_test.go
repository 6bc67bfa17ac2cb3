package ratingservice

import (
	"io"
	"log/slog"
	"testing"
	"time"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	ratingmetrics "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/metrics"
	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testEventID int64 = 7

var (
	testRules = ratingdomain.RuleSet{
		NumberOfParticipants:  4,
		UmaTable:              []int64{16, 8, -8, -16},
		StartingPoints:        30000,
		StartingRating:        1500,
		MinimumGamesForRating: 3,
	}
	t0 = time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)
)

func newTestService(repo *FakeRatingRepo) *RatingService {
	return NewRatingService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), ratingmetrics.NewNoop(), nil, nil)
}

func seat(userID, points int64) ratingdomain.Participant {
	return ratingdomain.Participant{UserID: userID, Points: points}
}

func newMatch(at time.Time, seats ...ratingdomain.Participant) ratingdomain.Match {
	return ratingdomain.Match{ID: uuid.New(), EventID: testEventID, PlayedAt: at, Participants: seats}
}

func testEvent() *ratingdb.Event {
	return &ratingdb.Event{
		ID:                    testEventID,
		Name:                  "Spring League",
		NumberOfParticipants:  testRules.NumberOfParticipants,
		UmaTable:              testRules.UmaTable,
		StartingPoints:        testRules.StartingPoints,
		StartingRating:        testRules.StartingRating,
		MinimumGamesForRating: testRules.MinimumGamesForRating,
	}
}

// storedMatch mirrors a domain match into the fake's match table.
func storedMatch(m ratingdomain.Match) *ratingdb.Match {
	stored := &ratingdb.Match{ID: m.ID, EventID: m.EventID, PlayedAt: m.PlayedAt}
	for _, p := range m.Participants {
		stored.Participants = append(stored.Participants, &ratingdb.MatchParticipant{MatchID: m.ID, UserID: p.UserID, Points: p.Points})
	}
	return stored
}

// requireChains asserts the chain invariant for every (user, event) in the fake.
func requireChains(t *testing.T, repo *FakeRatingRepo) {
	t.Helper()
	byUser := map[int64][]ratingdomain.ChainEntry{}
	for _, e := range repo.Snapshot() {
		byUser[e.UserID] = append(byUser[e.UserID], e.ChainEntry())
	}
	for userID, chain := range byUser {
		require.Empty(t, ratingdomain.VerifyChain(chain, testRules.BaselineRating()), "user %d", userID)
	}
}

// randomHistory builds n matches over six players at distinct timestamps.
func randomHistory(faker *gofakeit.Faker, n int) []ratingdomain.Match {
	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = i
	}
	shuffle(faker, offsets)

	matches := make([]ratingdomain.Match, n)
	for i := range matches {
		players := []int64{1, 2, 3, 4, 5, 6}
		shuffle(faker, players)
		seats := make([]ratingdomain.Participant, 4)
		for j := range seats {
			seats[j] = seat(players[j], int64(faker.Number(-100, 600))*100)
		}
		matches[i] = newMatch(t0.Add(time.Duration(offsets[i])*time.Hour), seats...)
	}
	return matches
}

func shuffle[T any](faker *gofakeit.Faker, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := faker.Number(0, i)
		s[i], s[j] = s[j], s[i]
	}
}
