package ratingservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/uptrace/bun"
)

// VerifyLedger checks every user's chain in the event. When any entry is off the
// report is returned together with an ErrInternalConsistency error.
func (s *RatingService) VerifyLedger(ctx context.Context, eventID int64) (*LedgerReport, error) {
	result, err := withTelemetry(s, ctx, "VerifyLedger", strconv.FormatInt(eventID, 10), func(ctx context.Context) (results.OperationResult[*LedgerReport, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*LedgerReport, error], error) {
			return s.verifyLedgerLogic(ctx, db, eventID)
		})
	})
	report, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	if len(report.Violations) > 0 {
		first := report.Violations[0]
		return report, s.consistencyFailure(ctx, "VerifyLedger",
			fmt.Errorf("%w: event %d has %d broken entries, first user %d: %v",
				ErrInternalConsistency, eventID, len(report.Violations), first.UserID, first.ChainViolation))
	}
	return report, nil
}

func (s *RatingService) verifyLedgerLogic(ctx context.Context, db bun.IDB, eventID int64) (results.OperationResult[*LedgerReport, error], error) {
	event, err := s.loadEvent(ctx, db, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return results.FailureResult[*LedgerReport, error](err), nil
		}
		return results.OperationResult[*LedgerReport, error]{}, err
	}
	baseline := event.Rules().BaselineRating()

	entries, err := s.repo.ListEntriesForEvent(ctx, db, eventID)
	if err != nil {
		return results.OperationResult[*LedgerReport, error]{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	byUser := make(map[int64][]ratingdomain.ChainEntry)
	var users []int64
	for _, e := range entries {
		if _, seen := byUser[e.UserID]; !seen {
			users = append(users, e.UserID)
		}
		byUser[e.UserID] = append(byUser[e.UserID], e.ChainEntry())
	}

	report := &LedgerReport{
		EventID:        eventID,
		UsersChecked:   len(users),
		EntriesChecked: len(entries),
	}
	for _, userID := range users {
		chain := byUser[userID]
		report.SharedTimestamps += len(ratingdomain.SharedTimestamps(chain))
		for _, v := range ratingdomain.VerifyChain(chain, baseline) {
			report.Violations = append(report.Violations, UserViolation{UserID: userID, ChainViolation: v})
		}
	}
	return results.SuccessResult[*LedgerReport, error](report), nil
}

// AuditedEvents lists the events that have ledger entries to verify.
func (s *RatingService) AuditedEvents(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.ListEventIDs(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("AuditedEvents: %w", err)
	}
	return ids, nil
}
