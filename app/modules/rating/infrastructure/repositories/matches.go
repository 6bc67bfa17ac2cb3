package ratingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) GetMatch(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*Match, error) {
	db = r.resolveDB(db)
	match := new(Match)
	err := db.NewSelect().
		Model(match).
		Relation("Participants").
		Where("rm.id = ?", matchID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ratingdb.GetMatch: %w", err)
	}
	return match, nil
}

func (r *Impl) ListUserMatches(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*Match, error) {
	db = r.resolveDB(db)
	var matches []*Match
	err := db.NewSelect().
		Model(&matches).
		Relation("Participants").
		Where("rm.event_id = ?", eventID).
		Where("EXISTS (SELECT 1 FROM rating_match_participants AS p WHERE p.match_id = rm.id AND p.user_id = ?)", userID).
		Order("rm.played_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListUserMatches: %w", err)
	}
	return matches, nil
}

func (r *Impl) CountEventMatches(ctx context.Context, db bun.IDB, eventID int64) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*Match)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ratingdb.CountEventMatches: %w", err)
	}
	return n, nil
}
