package ratinghandlers

import (
	"context"
	"time"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/google/uuid"
)

// ------------------------
// Fake Rating Service
// ------------------------

type FakeService struct {
	trace []string

	ApplyMatchFunc              func(ctx context.Context, match ratingdomain.Match, rules ratingdomain.RuleSet) ([]ratingservice.RatingChange, error)
	ReverseMatchFunc            func(ctx context.Context, match ratingdomain.Match) error
	ReapplyMatchFunc            func(ctx context.Context, previous, updated ratingdomain.Match, rules ratingdomain.RuleSet) ([]ratingservice.RatingChange, error)
	EventRulesFunc              func(ctx context.Context, eventID int64) (ratingdomain.RuleSet, error)
	MatchChangesFunc            func(ctx context.Context, eventID int64, matchID uuid.UUID) ([]ratingservice.RatingChange, error)
	CurrentRatingsFunc          func(ctx context.Context, eventID int64) ([]ratingservice.RatingView, error)
	RatingHistoryFunc           func(ctx context.Context, userID, eventID int64) ([]ratingservice.HistoryPoint, error)
	TotalChangeDuringPeriodFunc func(ctx context.Context, eventID int64, from, to time.Time) (map[int64]float64, error)
	StandingsFunc               func(ctx context.Context, eventID int64) (map[int64]int, error)
	RankedStandingsFunc         func(ctx context.Context, eventID int64) ([]ratingservice.Standing, error)
	StatsFunc                   func(ctx context.Context, userID, eventID int64) (results.OperationResult[*ratingdomain.UserEventStats, error], error)
	VerifyLedgerFunc            func(ctx context.Context, eventID int64) (*ratingservice.LedgerReport, error)
	AuditedEventsFunc           func(ctx context.Context) ([]int64, error)
	RatingHistoryChartFunc      func(ctx context.Context, userID, eventID int64) ([]byte, error)
	ExportStandingsFunc         func(ctx context.Context, eventID int64) ([]byte, error)
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) ApplyMatch(ctx context.Context, match ratingdomain.Match, rules ratingdomain.RuleSet) ([]ratingservice.RatingChange, error) {
	f.record("ApplyMatch")
	if f.ApplyMatchFunc != nil {
		return f.ApplyMatchFunc(ctx, match, rules)
	}
	return nil, nil
}

func (f *FakeService) ReverseMatch(ctx context.Context, match ratingdomain.Match) error {
	f.record("ReverseMatch")
	if f.ReverseMatchFunc != nil {
		return f.ReverseMatchFunc(ctx, match)
	}
	return nil
}

func (f *FakeService) ReapplyMatch(ctx context.Context, previous, updated ratingdomain.Match, rules ratingdomain.RuleSet) ([]ratingservice.RatingChange, error) {
	f.record("ReapplyMatch")
	if f.ReapplyMatchFunc != nil {
		return f.ReapplyMatchFunc(ctx, previous, updated, rules)
	}
	return nil, nil
}

func (f *FakeService) EventRules(ctx context.Context, eventID int64) (ratingdomain.RuleSet, error) {
	f.record("EventRules")
	if f.EventRulesFunc != nil {
		return f.EventRulesFunc(ctx, eventID)
	}
	return ratingdomain.RuleSet{}, ratingservice.ErrEventNotFound
}

func (f *FakeService) CurrentRatings(ctx context.Context, eventID int64) ([]ratingservice.RatingView, error) {
	f.record("CurrentRatings")
	if f.CurrentRatingsFunc != nil {
		return f.CurrentRatingsFunc(ctx, eventID)
	}
	return []ratingservice.RatingView{}, nil
}

func (f *FakeService) RatingHistory(ctx context.Context, userID, eventID int64) ([]ratingservice.HistoryPoint, error) {
	f.record("RatingHistory")
	if f.RatingHistoryFunc != nil {
		return f.RatingHistoryFunc(ctx, userID, eventID)
	}
	return []ratingservice.HistoryPoint{}, nil
}

func (f *FakeService) TotalChangeDuringPeriod(ctx context.Context, eventID int64, from, to time.Time) (map[int64]float64, error) {
	f.record("TotalChangeDuringPeriod")
	if f.TotalChangeDuringPeriodFunc != nil {
		return f.TotalChangeDuringPeriodFunc(ctx, eventID, from, to)
	}
	return map[int64]float64{}, nil
}

func (f *FakeService) Standings(ctx context.Context, eventID int64) (map[int64]int, error) {
	f.record("Standings")
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx, eventID)
	}
	return map[int64]int{}, nil
}

func (f *FakeService) RankedStandings(ctx context.Context, eventID int64) ([]ratingservice.Standing, error) {
	f.record("RankedStandings")
	if f.RankedStandingsFunc != nil {
		return f.RankedStandingsFunc(ctx, eventID)
	}
	return []ratingservice.Standing{}, nil
}

func (f *FakeService) Stats(ctx context.Context, userID, eventID int64) (results.OperationResult[*ratingdomain.UserEventStats, error], error) {
	f.record("Stats")
	if f.StatsFunc != nil {
		return f.StatsFunc(ctx, userID, eventID)
	}
	return results.FailureResult[*ratingdomain.UserEventStats, error](ratingservice.ErrNoParticipation), nil
}

func (f *FakeService) VerifyLedger(ctx context.Context, eventID int64) (*ratingservice.LedgerReport, error) {
	f.record("VerifyLedger")
	if f.VerifyLedgerFunc != nil {
		return f.VerifyLedgerFunc(ctx, eventID)
	}
	return &ratingservice.LedgerReport{EventID: eventID}, nil
}

func (f *FakeService) AuditedEvents(ctx context.Context) ([]int64, error) {
	f.record("AuditedEvents")
	if f.AuditedEventsFunc != nil {
		return f.AuditedEventsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) RatingHistoryChart(ctx context.Context, userID, eventID int64) ([]byte, error) {
	f.record("RatingHistoryChart")
	if f.RatingHistoryChartFunc != nil {
		return f.RatingHistoryChartFunc(ctx, userID, eventID)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (f *FakeService) ExportStandings(ctx context.Context, eventID int64) ([]byte, error) {
	f.record("ExportStandings")
	if f.ExportStandingsFunc != nil {
		return f.ExportStandingsFunc(ctx, eventID)
	}
	return []byte("PK"), nil
}

// Ensure the fake actually satisfies the interface
var _ ratingservice.Service = (*FakeService)(nil)

func (f *FakeService) MatchChanges(ctx context.Context, eventID int64, matchID uuid.UUID) ([]ratingservice.RatingChange, error) {
	f.record("MatchChanges")
	if f.MatchChangesFunc != nil {
		return f.MatchChangesFunc(ctx, eventID, matchID)
	}
	return nil, ratingservice.ErrMatchNotFound
}
