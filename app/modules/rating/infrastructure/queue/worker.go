package ratingqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/attr"
	"github.com/riverqueue/river"
)

// Auditor is the part of the rating service the audit worker needs.
type Auditor interface {
	VerifyLedger(ctx context.Context, eventID int64) (*ratingservice.LedgerReport, error)
	AuditedEvents(ctx context.Context) ([]int64, error)
}

// LedgerAuditWorker runs ledger verification jobs.
type LedgerAuditWorker struct {
	river.WorkerDefaults[LedgerAuditJob]
	auditor Auditor
	logger  *slog.Logger
}

// NewLedgerAuditWorker creates a worker backed by auditor.
func NewLedgerAuditWorker(logger *slog.Logger, auditor Auditor) *LedgerAuditWorker {
	return &LedgerAuditWorker{
		auditor: auditor,
		logger:  logger,
	}
}

// Work verifies the requested event, or every event when none is named.
// Broken chains are logged but do not fail the job: retrying cannot repair
// them. Infrastructure errors are returned so River retries.
func (w *LedgerAuditWorker) Work(ctx context.Context, job *river.Job[LedgerAuditJob]) error {
	eventIDs := []int64{job.Args.EventID}
	if job.Args.EventID == 0 {
		ids, err := w.auditor.AuditedEvents(ctx)
		if err != nil {
			return fmt.Errorf("failed to list events for audit: %w", err)
		}
		eventIDs = ids
	}

	broken := 0
	for _, eventID := range eventIDs {
		report, err := w.auditor.VerifyLedger(ctx, eventID)
		switch {
		case errors.Is(err, ratingservice.ErrInternalConsistency):
			broken++
			violations := 0
			if report != nil {
				violations = len(report.Violations)
			}
			w.logger.ErrorContext(ctx, "Rating ledger audit found broken chains",
				attr.EventID(eventID),
				attr.Int("violations", violations),
				attr.Int64("job_id", job.ID),
			)
		case errors.Is(err, ratingservice.ErrEventNotFound):
			w.logger.WarnContext(ctx, "Skipping audit of unknown event",
				attr.EventID(eventID),
				attr.Int64("job_id", job.ID),
			)
		case err != nil:
			return fmt.Errorf("failed to audit event %d: %w", eventID, err)
		default:
			w.logger.InfoContext(ctx, "Rating ledger audit passed",
				attr.EventID(eventID),
				attr.Int("users_checked", report.UsersChecked),
				attr.Int("entries_checked", report.EntriesChecked),
				attr.Int("shared_timestamps", report.SharedTimestamps),
			)
		}
	}

	w.logger.InfoContext(ctx, "Rating ledger audit completed",
		attr.Int("events", len(eventIDs)),
		attr.Int("broken_events", broken),
	)
	return nil
}
