package rating

import (
	"context"
	"fmt"
	"log/slog"

	ratingservice "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/application"
	ratinghandlers "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/handlers"
	ratingmetrics "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/metrics"
	ratingqueue "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/queue"
	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	ratingrouter "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/router"
	"github.com/Black-And-White-Club/mahjong-bot/app/observability"
	"github.com/Black-And-White-Club/mahjong-bot/config"
	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Module represents the rating module.
type Module struct {
	Service ratingservice.Service
	Router  *ratingrouter.Router
	Queue   *ratingqueue.Service
	logger  *slog.Logger
}

// NewRatingModule wires the rating ledger: repository, service, NATS
// handlers, the HTTP read API on httpRouter, and the audit queue.
func NewRatingModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	nc *nats.Conn,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "rating"))
	tracer := obs.Tracer("rating")

	logger.InfoContext(ctx, "rating.NewRatingModule initializing")

	// 1. Initialize Repository
	repo := ratingdb.NewRepository(db)

	// 2. Initialize Metrics
	metrics, err := ratingmetrics.NewPrometheusMetrics(obs.Registry, cfg.Observability.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to register rating metrics: %w", err)
	}

	// 3. Initialize Service
	service := ratingservice.NewRatingService(repo, logger, metrics, tracer, db,
		ratingservice.WithSerializableWrites(cfg.Rating.SerializableWrites),
	)

	// 4. Initialize the audit queue
	queue, err := ratingqueue.NewService(ctx, logger, cfg.Postgres.DSN, metrics, service, cfg.Rating.AuditInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to create rating audit queue: %w", err)
	}

	// 5. Initialize Handlers
	handlers := ratinghandlers.NewRatingHandlers(service, logger, tracer,
		ratinghandlers.WithAuditTrigger(queue.EnqueueAudit),
	)

	// 6. Mount the read API
	var limiter *ratinghandlers.IPRateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = ratinghandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
	}
	ratinghandlers.Mount(httpRouter, handlers, limiter, metrics)

	return &Module{
		Service: service,
		Router:  ratingrouter.NewRouter(handlers, nc),
		Queue:   queue,
		logger:  logger,
	}, nil
}

// Start subscribes to match events and starts the audit queue.
func (m *Module) Start(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting rating module")

	if err := m.Queue.Start(ctx); err != nil {
		return err
	}
	if err := m.Router.Start(); err != nil {
		return fmt.Errorf("failed to start rating router: %w", err)
	}

	m.logger.InfoContext(ctx, "Rating module started")
	return nil
}

// Stop stops taking match events first, then drains the audit queue.
func (m *Module) Stop(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Stopping rating module")

	var firstErr error
	if err := m.Router.Stop(); err != nil {
		m.logger.ErrorContext(ctx, "Error stopping rating router", slog.Any("error", err))
		firstErr = fmt.Errorf("error stopping rating router: %w", err)
	}
	if err := m.Queue.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	m.logger.InfoContext(ctx, "Rating module stopped")
	return firstErr
}
