package ratingdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for rating persistence.
// Every method accepts a bun.IDB so callers can run it inside a transaction;
// a nil db uses the repository's default connection.
type Repository interface {
	// --- Ledger ---

	// RatingBefore returns the user's rating in force strictly before at: the
	// running rating ahead of the latest earlier timestamp plus every change
	// recorded at that timestamp. found is false when the user has no earlier entry.
	RatingBefore(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (rating int64, found bool, err error)

	// CountEntriesAt counts the user's entries with exactly this timestamp.
	CountEntriesAt(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (int, error)

	// InsertEntry writes a new ledger entry.
	InsertEntry(ctx context.Context, db bun.IDB, entry *LedgerEntry) error

	// ShiftRunningAfter adds delta to the running rating of the user's entries strictly after at.
	ShiftRunningAfter(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time, delta int64) (int64, error)

	// GetEntry returns the entry for (user, event, game). Returns ErrNotFound if absent.
	GetEntry(ctx context.Context, db bun.IDB, userID, eventID int64, gameID uuid.UUID) (*LedgerEntry, error)

	// DeleteEntriesForGame removes every entry written for a game.
	DeleteEntriesForGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int64, error)

	// ListEntriesForUser returns the user's entries in the event, oldest first.
	ListEntriesForUser(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*LedgerEntry, error)

	// ListEntriesForEvent returns all entries in the event ordered by user, then time.
	ListEntriesForEvent(ctx context.Context, db bun.IDB, eventID int64) ([]*LedgerEntry, error)

	// LatestEntriesForEvent returns each user's latest entry in the event, with
	// RunningRating set to the rating after every entry sharing its timestamp.
	LatestEntriesForEvent(ctx context.Context, db bun.IDB, eventID int64) ([]*LedgerEntry, error)

	// SumChangesBetween sums rating changes per user for from <= played_at <= to.
	// Users without entries in range are absent from the result.
	SumChangesBetween(ctx context.Context, db bun.IDB, eventID int64, from, to time.Time) ([]PeriodChange, error)

	// --- Events ---

	// GetEvent returns an event by id. Returns ErrNotFound if absent.
	GetEvent(ctx context.Context, db bun.IDB, eventID int64) (*Event, error)

	// ListEventIDs returns the ids of events that have ledger entries.
	ListEventIDs(ctx context.Context, db bun.IDB) ([]int64, error)

	// --- Matches ---

	// GetMatch returns a match with its participants. Returns ErrNotFound if absent.
	GetMatch(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*Match, error)

	// ListUserMatches returns the event's matches the user played in, with all participants.
	ListUserMatches(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*Match, error)

	// CountEventMatches counts all matches of the event.
	CountEventMatches(ctx context.Context, db bun.IDB, eventID int64) (int, error)
}
