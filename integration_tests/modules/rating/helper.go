package ratingintegrationtests

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"testing"
	"time"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	ratingmetrics "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/metrics"
	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/mahjong-bot/integration_tests/testutils"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

// Global variables for the test environment, initialized once.
var (
	testEnv     *testutils.TestEnvironment
	testEnvOnce sync.Once
	testEnvErr  error
)

// TestDeps holds dependencies needed by individual tests.
type TestDeps struct {
	Ctx     context.Context
	Repo    ratingdb.Repository
	BunDB   *bun.DB
	Service *ratingservice.RatingService
	Logger  *slog.Logger
}

func GetTestEnv(t *testing.T) *testutils.TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}

	testEnvOnce.Do(func() {
		log.Println("Initializing rating test environment...")
		testEnv, testEnvErr = testutils.NewTestEnvironment()
	})
	if testEnvErr != nil {
		t.Fatalf("Rating test environment initialization failed: %v", testEnvErr)
	}
	return testEnv
}

// SetupTestRatingService resets the database and returns a service over the real repository.
func SetupTestRatingService(t *testing.T) TestDeps {
	t.Helper()
	env := GetTestEnv(t)
	env.Reset(t)

	logger := slog.New(slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	repo := ratingdb.NewRepository(env.DB)
	svc := ratingservice.NewRatingService(repo, logger, ratingmetrics.NewNoop(), noop.NewTracerProvider().Tracer("test"), env.DB,
		ratingservice.WithSerializableWrites(true),
	)

	return TestDeps{
		Ctx:     env.Ctx,
		Repo:    repo,
		BunDB:   env.DB,
		Service: svc,
		Logger:  logger,
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

var (
	baseTime = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

	leagueRules = ratingdomain.RuleSet{
		NumberOfParticipants:  4,
		UmaTable:              []int64{15, 5, -5, -15},
		StartingPoints:        25000,
		ReturnPoints:          30000,
		StartingRating:        1500,
		MinimumGamesForRating: 2,
	}
)

// insertEvent stores an event carrying leagueRules and returns its id.
func insertEvent(t *testing.T, deps TestDeps, name string) int64 {
	t.Helper()
	event := &ratingdb.Event{
		Name:                  name,
		NumberOfParticipants:  leagueRules.NumberOfParticipants,
		UmaTable:              leagueRules.UmaTable,
		StartingPoints:        leagueRules.StartingPoints,
		ReturnPoints:          leagueRules.ReturnPoints,
		StartingRating:        leagueRules.StartingRating,
		MinimumGamesForRating: leagueRules.MinimumGamesForRating,
	}
	if _, err := deps.BunDB.NewInsert().Model(event).Returning("id").Exec(deps.Ctx); err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}
	return event.ID
}

// recordMatch stores the match in the collaborator tables, as the match
// service would before publishing it.
func recordMatch(t *testing.T, deps TestDeps, m ratingdomain.Match) {
	t.Helper()
	stored := &ratingdb.Match{ID: m.ID, EventID: m.EventID, PlayedAt: m.PlayedAt}
	if _, err := deps.BunDB.NewInsert().Model(stored).Exec(deps.Ctx); err != nil {
		t.Fatalf("failed to insert match: %v", err)
	}
	for _, p := range m.Participants {
		row := &ratingdb.MatchParticipant{MatchID: m.ID, UserID: p.UserID, Points: p.Points}
		if _, err := deps.BunDB.NewInsert().Model(row).Exec(deps.Ctx); err != nil {
			t.Fatalf("failed to insert participant: %v", err)
		}
	}
}

func match(eventID int64, at time.Time, points ...int64) ratingdomain.Match {
	m := ratingdomain.Match{ID: uuid.New(), EventID: eventID, PlayedAt: at}
	for i, p := range points {
		m.Participants = append(m.Participants, ratingdomain.Participant{UserID: int64(i + 1), Points: p})
	}
	return m
}
