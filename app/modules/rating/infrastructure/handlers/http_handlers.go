package ratinghandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PeriodChangesResponse is the body of the period change endpoint.
type PeriodChangesResponse struct {
	EventID int64              `json:"event_id"`
	From    time.Time          `json:"from"`
	To      time.Time          `json:"to"`
	Changes map[string]float64 `json:"changes"`
}

func (h *RatingHandlers) HandleCurrentRatings(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	ratings, err := h.service.CurrentRatings(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, ratings)
}

func (h *RatingHandlers) HandleStandings(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	standings, err := h.service.RankedStandings(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, standings)
}

func (h *RatingHandlers) HandleStandingsExport(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	data, err := h.service.ExportStandings(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="standings-%d.xlsx"`, eventID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *RatingHandlers) HandlePeriodChanges(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	from, to, err := parsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	totals, err := h.service.TotalChangeDuringPeriod(r.Context(), eventID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// JSON object keys must be strings.
	changes := make(map[string]float64, len(totals))
	for userID, total := range totals {
		changes[strconv.FormatInt(userID, 10)] = total
	}
	h.writeJSON(w, r, http.StatusOK, PeriodChangesResponse{EventID: eventID, From: from, To: to, Changes: changes})
}

func (h *RatingHandlers) HandleRatingHistory(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	history, err := h.service.RatingHistory(r.Context(), userID, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, history)
}

func (h *RatingHandlers) HandleRatingHistoryChart(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	png, err := h.service.RatingHistoryChart(r.Context(), userID, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *RatingHandlers) HandleMatchChanges(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		http.Error(w, "invalid matchID", http.StatusBadRequest)
		return
	}
	changes, err := h.service.MatchChanges(r.Context(), eventID, matchID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, changes)
}

func (h *RatingHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.pathID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	result, err := h.service.Stats(r.Context(), userID, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.IsFailure() {
		h.writeError(w, r, *result.Failure)
		return
	}
	h.writeJSON(w, r, http.StatusOK, *result.Success)
}

func (h *RatingHandlers) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid %s", name), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *RatingHandlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response",
			attr.ExtractCorrelationID(r.Context()),
			attr.Error(err),
		)
	}
}

// writeError maps service errors to HTTP status codes.
func (h *RatingHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ratingservice.ErrEventNotFound),
		errors.Is(err, ratingservice.ErrMatchNotFound),
		errors.Is(err, ratingservice.ErrNoParticipation):
		status = http.StatusNotFound
	case errors.Is(err, ratingservice.ErrInternalConsistency):
		h.logger.ErrorContext(r.Context(), "Rating ledger inconsistency surfaced to HTTP caller",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	h.writeJSON(w, r, status, map[string]string{"error": message})
}
