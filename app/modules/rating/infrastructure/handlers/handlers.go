package ratinghandlers

import (
	"context"
	"log/slog"
	"time"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// RatingHandlers implements the Handlers interface.
type RatingHandlers struct {
	service ratingservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer

	now          func() time.Time
	respond      func(msg *nats.Msg, data []byte) error
	auditTrigger AuditTrigger
}

// AuditTrigger schedules an out-of-band ledger audit for an event.
type AuditTrigger func(ctx context.Context, eventID int64) error

// Option configures RatingHandlers.
type Option func(*RatingHandlers)

// WithAuditTrigger makes a consistency failure on a match event request an
// immediate audit of that event.
func WithAuditTrigger(trigger AuditTrigger) Option {
	return func(h *RatingHandlers) {
		h.auditTrigger = trigger
	}
}

// NewRatingHandlers creates a new RatingHandlers instance.
func NewRatingHandlers(
	service ratingservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
	opts ...Option,
) Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("rating")
	}
	h := &RatingHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
		now:     time.Now,
		respond: func(msg *nats.Msg, data []byte) error { return msg.Respond(data) },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
