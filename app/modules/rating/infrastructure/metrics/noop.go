package ratingmetrics

import (
	"context"
	"time"
)

type noop struct{}

// NewNoop returns metrics that discard every observation.
func NewNoop() RatingMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string) {}
func (noop) RecordOperationSuccess(context.Context, string, string) {}
func (noop) RecordOperationFailure(context.Context, string, string) {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordLedgerEntriesWritten(context.Context, string, int64) {}
func (noop) RecordRunningRatingsShifted(context.Context, string, int64) {}
func (noop) RecordConsistencyFailure(context.Context, string) {}
func (noop) RecordSharedTimestamp(context.Context) {}
func (noop) RecordHTTPRequest(context.Context, string, string, int, time.Duration) {}
