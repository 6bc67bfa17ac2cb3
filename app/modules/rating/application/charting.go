package ratingservice

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Black-And-White-Club/mahjong-bot/pkg/results"
	"github.com/uptrace/bun"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// RatingHistoryChart renders the user's rating history as a PNG line chart.
func (s *RatingService) RatingHistoryChart(ctx context.Context, userID, eventID int64) ([]byte, error) {
	result, err := withTelemetry(s, ctx, "RatingHistoryChart", strconv.FormatInt(userID, 10), func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		return runInReadTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]byte, error], error) {
			entries, err := s.repo.ListEntriesForUser(ctx, db, userID, eventID)
			if err != nil {
				return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to load rating history: %w", err)
			}
			png, err := renderHistoryChart(fmt.Sprintf("User %d", userID), historyPoints(entries))
			if err != nil {
				return results.OperationResult[[]byte, error]{}, err
			}
			return results.SuccessResult[[]byte, error](png), nil
		})
	})
	return unwrap(result, err)
}

func renderHistoryChart(title string, history []HistoryPoint) ([]byte, error) {
	if len(history) == 0 {
		return renderEmptyChart(title)
	}

	xValues := make([]time.Time, len(history))
	yValues := make([]float64, len(history))
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, h := range history {
		xValues[i] = h.PlayedAt
		yValues[i] = h.Rating
		minY = math.Min(minY, h.Rating)
		maxY = math.Max(maxY, h.Rating)
	}
	// A single point needs two x values to draw.
	if len(history) == 1 {
		xValues = append(xValues, xValues[0].Add(time.Hour))
		yValues = append(yValues, yValues[0])
	}
	padding := math.Max((maxY-minY)*0.1, 5)

	series := chart.TimeSeries{
		Name:    "Rating",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: drawing.Color{R: 0, G: 116, B: 217, A: 255},
			StrokeWidth: 2,
			DotWidth:    3,
			DotColor:    drawing.Color{R: 0, G: 116, B: 217, A: 255},
		},
	}

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Played",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name: "Rating",
			Range: &chart.ContinuousRange{
				Min: minY - padding,
				Max: maxY + padding,
			},
		},
		Series: []chart.Series{series},
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render rating chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderEmptyChart(title string) ([]byte, error) {
	const msg = "No games played yet"

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 1},
				Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(14.0)
				tb := r.MeasureText(msg)
				r.Text(msg, (cb.Width()-tb.Width())/2, (cb.Height()+tb.Height())/2)
			},
		},
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render empty rating chart: %w", err)
	}
	return buffer.Bytes(), nil
}
