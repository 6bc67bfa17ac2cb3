package ratingservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

const standingsSheet = "Standings"

// ExportStandings renders the event's standings as an XLSX workbook.
func (s *RatingService) ExportStandings(ctx context.Context, eventID int64) ([]byte, error) {
	result, err := withTelemetry(s, ctx, "ExportStandings", strconv.FormatInt(eventID, 10), func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]byte, error], error) {
			event, err := s.loadEvent(ctx, db, eventID)
			if err != nil {
				if errors.Is(err, ErrEventNotFound) {
					return results.FailureResult[[]byte, error](err), nil
				}
				return results.OperationResult[[]byte, error]{}, err
			}
			standings, err := s.standingsLogic(ctx, db, eventID)
			if err != nil {
				return results.OperationResult[[]byte, error]{}, err
			}
			data, err := renderStandingsWorkbook(event.Name, standings)
			if err != nil {
				return results.OperationResult[[]byte, error]{}, err
			}
			return results.SuccessResult[[]byte, error](data), nil
		})
	})
	return unwrap(result, err)
}

func renderStandingsWorkbook(eventName string, standings []Standing) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", standingsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := [][]any{
		{eventName},
		{"Rank", "User ID", "Rating", "Last Played"},
	}
	for _, st := range standings {
		rows = append(rows, []any{st.Rank, st.UserID, st.Rating, st.LastPlayed.UTC().Format("2006-01-02 15:04")})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(standingsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
