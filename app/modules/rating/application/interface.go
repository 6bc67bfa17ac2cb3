package ratingservice

import (
	"context"
	"time"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/google/uuid"
)

// Service is the rating ledger engine together with its read side.
type Service interface {
	// ApplyMatch writes one ledger entry per participant and shifts their later entries.
	ApplyMatch(ctx context.Context, match ratingdomain.Match, rules ratingdomain.RuleSet) ([]RatingChange, error)
	// ReverseMatch undoes ApplyMatch. A missing entry is ErrInternalConsistency.
	ReverseMatch(ctx context.Context, match ratingdomain.Match) error
	// ReapplyMatch reverses previous and applies updated atomically.
	ReapplyMatch(ctx context.Context, previous, updated ratingdomain.Match, rules ratingdomain.RuleSet) ([]RatingChange, error)
	EventRules(ctx context.Context, eventID int64) (ratingdomain.RuleSet, error)
	// MatchChanges reads back what a rated match did to each participant.
	MatchChanges(ctx context.Context, eventID int64, matchID uuid.UUID) ([]RatingChange, error)

	CurrentRatings(ctx context.Context, eventID int64) ([]RatingView, error)
	RatingHistory(ctx context.Context, userID, eventID int64) ([]HistoryPoint, error)
	TotalChangeDuringPeriod(ctx context.Context, eventID int64, from, to time.Time) (map[int64]float64, error)
	Standings(ctx context.Context, eventID int64) (map[int64]int, error)
	RankedStandings(ctx context.Context, eventID int64) ([]Standing, error)
	Stats(ctx context.Context, userID, eventID int64) (results.OperationResult[*ratingdomain.UserEventStats, error], error)

	VerifyLedger(ctx context.Context, eventID int64) (*LedgerReport, error)
	AuditedEvents(ctx context.Context) ([]int64, error)

	RatingHistoryChart(ctx context.Context, userID, eventID int64) ([]byte, error)
	ExportStandings(ctx context.Context, eventID int64) ([]byte, error)
}
