package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/mahjong-bot/app/modules/rating"
	"github.com/Black-And-White-Club/mahjong-bot/app/observability"
	"github.com/Black-And-White-Club/mahjong-bot/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const shutdownTimeout = 15 * time.Second

// App holds the process-wide connections and the rating module.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	NATS          *nats.Conn
	Router        chi.Router
	RatingModule  *rating.Module
	server        *http.Server
}

// Initialize opens the database and NATS connections and builds the modules.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs *observability.Observability) error {
	app.Config = cfg
	app.Observability = obs
	logger := obs.Logger

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.DB = bun.NewDB(pgdb, pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.InfoContext(ctx, "Database connected")

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("mahjong-rating"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	app.NATS = nc
	logger.InfoContext(ctx, "NATS connected", "url", nc.ConnectedUrl())

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{Registry: obs.Registry}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.DB.PingContext(r.Context()); err != nil || !app.NATS.IsConnected() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	app.Router = router

	app.RatingModule, err = rating.NewRatingModule(ctx, cfg, obs, app.DB, app.NATS, router)
	if err != nil {
		return fmt.Errorf("failed to initialize rating module: %w", err)
	}

	app.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run starts the modules and serves HTTP until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	if err := app.RatingModule.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "HTTP server listening", "addr", app.server.Addr)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Close stops the HTTP server and the modules, then releases connections.
func (app *App) Close() {
	logger := app.Observability.Logger
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down HTTP server", "error", err)
		}
	}
	if app.RatingModule != nil {
		if err := app.RatingModule.Stop(ctx); err != nil {
			logger.Error("Error stopping rating module", "error", err)
		}
	}
	if app.NATS != nil {
		if err := app.NATS.Drain(); err != nil {
			logger.Error("Error draining NATS connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			logger.Error("Error closing database", "error", err)
		}
	}
	logger.Info("Application shut down")
}
