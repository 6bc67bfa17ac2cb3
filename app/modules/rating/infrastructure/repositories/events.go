package ratingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) GetEvent(ctx context.Context, db bun.IDB, eventID int64) (*Event, error) {
	db = r.resolveDB(db)
	event := new(Event)
	err := db.NewSelect().
		Model(event).
		Where("id = ?", eventID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ratingdb.GetEvent: %w", err)
	}
	return event, nil
}

func (r *Impl) ListEventIDs(ctx context.Context, db bun.IDB) ([]int64, error) {
	db = r.resolveDB(db)
	var ids []int64
	err := db.NewSelect().
		Model((*LedgerEntry)(nil)).
		ColumnExpr("DISTINCT event_id").
		Order("event_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListEventIDs: %w", err)
	}
	return ids, nil
}
