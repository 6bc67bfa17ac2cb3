package ratinghandlers

import (
	"net/http"

	"github.com/nats-io/nats.go"
)

// Handlers handles match events from NATS and rating queries over HTTP.
type Handlers interface {
	HandleMatchCreated(msg *nats.Msg)
	HandleMatchDeleted(msg *nats.Msg)
	HandleMatchUpdated(msg *nats.Msg)

	HandleCurrentRatings(w http.ResponseWriter, r *http.Request)
	HandleStandings(w http.ResponseWriter, r *http.Request)
	HandleStandingsExport(w http.ResponseWriter, r *http.Request)
	HandlePeriodChanges(w http.ResponseWriter, r *http.Request)
	HandleMatchChanges(w http.ResponseWriter, r *http.Request)
	HandleRatingHistory(w http.ResponseWriter, r *http.Request)
	HandleRatingHistoryChart(w http.ResponseWriter, r *http.Request)
	HandleStats(w http.ResponseWriter, r *http.Request)
}
