package ratingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new rating repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) RatingBefore(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (int64, bool, error) {
	db = r.resolveDB(db)
	var rating int64
	err := db.NewSelect().
		Model((*LedgerEntry)(nil)).
		ColumnExpr("running_rating - rating_change + SUM(rating_change) OVER (PARTITION BY played_at) AS rating").
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("played_at < ?", at).
		OrderExpr("played_at DESC").
		Limit(1).
		Scan(ctx, &rating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ratingdb.RatingBefore: %w", err)
	}
	return rating, true, nil
}

func (r *Impl) CountEntriesAt(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*LedgerEntry)(nil)).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("played_at = ?", at).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ratingdb.CountEntriesAt: %w", err)
	}
	return n, nil
}

func (r *Impl) InsertEntry(ctx context.Context, db bun.IDB, entry *LedgerEntry) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("ratingdb.InsertEntry: %w", err)
	}
	return nil
}

func (r *Impl) ShiftRunningAfter(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time, delta int64) (int64, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*LedgerEntry)(nil)).
		Set("running_rating = running_rating + ?", delta).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("played_at > ?", at).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("ratingdb.ShiftRunningAfter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ratingdb.ShiftRunningAfter: rows affected: %w", err)
	}
	return n, nil
}

func (r *Impl) GetEntry(ctx context.Context, db bun.IDB, userID, eventID int64, gameID uuid.UUID) (*LedgerEntry, error) {
	db = r.resolveDB(db)
	entry := new(LedgerEntry)
	err := db.NewSelect().
		Model(entry).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("game_id = ?", gameID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ratingdb.GetEntry: %w", err)
	}
	return entry, nil
}

func (r *Impl) DeleteEntriesForGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int64, error) {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*LedgerEntry)(nil)).
		Where("game_id = ?", gameID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("ratingdb.DeleteEntriesForGame: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ratingdb.DeleteEntriesForGame: rows affected: %w", err)
	}
	return n, nil
}

func (r *Impl) ListEntriesForUser(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*LedgerEntry, error) {
	db = r.resolveDB(db)
	var entries []*LedgerEntry
	err := db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		OrderExpr("played_at ASC, game_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListEntriesForUser: %w", err)
	}
	return entries, nil
}

func (r *Impl) ListEntriesForEvent(ctx context.Context, db bun.IDB, eventID int64) ([]*LedgerEntry, error) {
	db = r.resolveDB(db)
	var entries []*LedgerEntry
	err := db.NewSelect().
		Model(&entries).
		Where("event_id = ?", eventID).
		OrderExpr("user_id ASC, played_at ASC, game_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListEntriesForEvent: %w", err)
	}
	return entries, nil
}

func (r *Impl) LatestEntriesForEvent(ctx context.Context, db bun.IDB, eventID int64) ([]*LedgerEntry, error) {
	db = r.resolveDB(db)
	var entries []*LedgerEntry
	err := db.NewSelect().
		Model(&entries).
		DistinctOn("user_id").
		Column("user_id", "event_id", "game_id", "rating_change", "played_at", "created_at").
		ColumnExpr("running_rating - rating_change + SUM(rating_change) OVER (PARTITION BY user_id, played_at) AS running_rating").
		Where("event_id = ?", eventID).
		OrderExpr("user_id ASC, played_at DESC, game_id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.LatestEntriesForEvent: %w", err)
	}
	return entries, nil
}

func (r *Impl) SumChangesBetween(ctx context.Context, db bun.IDB, eventID int64, from, to time.Time) ([]PeriodChange, error) {
	db = r.resolveDB(db)
	var rows []PeriodChange
	err := db.NewSelect().
		Model((*LedgerEntry)(nil)).
		Column("user_id").
		ColumnExpr("SUM(rating_change)::bigint AS total").
		Where("event_id = ?", eventID).
		Where("played_at >= ?", from).
		Where("played_at <= ?", to).
		Group("user_id").
		Order("user_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.SumChangesBetween: %w", err)
	}
	return rows, nil
}
