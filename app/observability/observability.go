package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config describes the process being observed.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	LogLevel    string
}

// Observability bundles the logger, tracer provider and metrics registry
// shared by every module.
type Observability struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Registry       *prometheus.Registry
}

// Init builds a JSON logger at the configured level, takes the global tracer
// provider, and creates a registry with the Go and process collectors.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)})
	logger := slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("version", cfg.Version),
	)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Observability initialized")
	return &Observability{
		Logger:         logger,
		TracerProvider: otel.GetTracerProvider(),
		Registry:       registry,
	}, nil
}

// Tracer returns a named tracer from the provider.
func (o *Observability) Tracer(name string) trace.Tracer {
	return o.TracerProvider.Tracer(name)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
