package ratinghandlers

import (
	ratingmetrics "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Mount registers the rating read API under /api/events.
func Mount(router chi.Router, h Handlers, limiter *IPRateLimiter, metrics ratingmetrics.RatingMetrics) {
	router.Route("/api/events/{eventID}", func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(CorrelationMiddleware)
		if metrics != nil {
			r.Use(MetricsMiddleware(metrics))
		}
		if limiter != nil {
			r.Use(RateLimitMiddleware(limiter))
		}

		r.Get("/ratings", h.HandleCurrentRatings)
		r.Get("/standings", h.HandleStandings)
		r.Get("/standings.xlsx", h.HandleStandingsExport)
		r.Get("/changes", h.HandlePeriodChanges)
		r.Get("/matches/{matchID}", h.HandleMatchChanges)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/history", h.HandleRatingHistory)
			r.Get("/history.png", h.HandleRatingHistoryChart)
			r.Get("/stats", h.HandleStats)
		})
	})
}
