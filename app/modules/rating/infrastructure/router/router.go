package ratingrouter

import (
	"fmt"

	ratinghandlers "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/handlers"
	"github.com/nats-io/nats.go"
)

const (
	// MatchCreatedSubject carries newly recorded matches.
	MatchCreatedSubject = "match.created.v1"

	// MatchDeletedSubject carries matches removed from an event.
	MatchDeletedSubject = "match.deleted.v1"

	// MatchUpdatedSubject carries edits to an already recorded match.
	MatchUpdatedSubject = "match.updated.v1"

	// QueueGroup spreads match events across rating instances.
	QueueGroup = "rating"
)

// Router manages NATS subscriptions for the rating module.
type Router struct {
	handlers ratinghandlers.Handlers
	nc       *nats.Conn
	subs     []*nats.Subscription
}

// NewRouter creates a new rating router.
func NewRouter(handlers ratinghandlers.Handlers, nc *nats.Conn) *Router {
	return &Router{
		handlers: handlers,
		nc:       nc,
	}
}

// Start subscribes to the match lifecycle subjects. On failure any
// subscription already made is removed.
func (r *Router) Start() error {
	bindings := []struct {
		subject string
		handler nats.MsgHandler
	}{
		{MatchCreatedSubject, r.handlers.HandleMatchCreated},
		{MatchDeletedSubject, r.handlers.HandleMatchDeleted},
		{MatchUpdatedSubject, r.handlers.HandleMatchUpdated},
	}

	for _, b := range bindings {
		sub, err := r.nc.QueueSubscribe(b.subject, QueueGroup, b.handler)
		if err != nil {
			_ = r.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
		}
		r.subs = append(r.subs, sub)
	}

	return nil
}

// Stop unsubscribes from all NATS subjects.
func (r *Router) Stop() error {
	var firstErr error

	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.subs = nil

	return firstErr
}
