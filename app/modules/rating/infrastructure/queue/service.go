package ratingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ratingmetrics "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/metrics"
	"github.com/Black-And-White-Club/mahjong-bot/pkg/attr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
)

const component = "river"

// Service runs periodic ledger audits on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics ratingmetrics.RatingMetrics
}

// NewService creates the audit queue. A non-positive interval disables the
// periodic audit; jobs can still be enqueued with EnqueueAudit.
func NewService(ctx context.Context, logger *slog.Logger, dsn string, metrics ratingmetrics.RatingMetrics, auditor Auditor, interval time.Duration) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_queue", component)

	pool, err := newPool(ctx, dsn)
	if err != nil {
		ctxLogger.Error("Failed to open pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_queue", component)
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewLedgerAuditWorker(ctxLogger, auditor))

	cfg := &river.Config{
		Logger: ctxLogger,
		Queues: map[string]river.QueueConfig{
			AuditQueue: {MaxWorkers: 2},
		},
		Workers: workers,
	}
	if interval > 0 {
		cfg.PeriodicJobs = []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return LedgerAuditJob{}, auditInsertOpts()
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), cfg)
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_queue", component)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_queue", component)
	metrics.RecordOperationDuration(ctx, "initialize_queue", component, time.Since(start))

	ctxLogger.Info("Rating audit queue initialized", attr.Duration("interval", interval))
	return &Service{
		client:  client,
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func auditInsertOpts() *river.InsertOpts {
	return &river.InsertOpts{
		Queue: AuditQueue,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRetryable,
				rivertype.JobStateRunning,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// Start starts processing audit jobs.
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_queue", component)
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_queue", component)
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_queue", component)
	s.logger.Info("Rating audit queue started")
	return nil
}

// Stop waits for running audits to finish, then releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()

	s.metrics.RecordOperationAttempt(ctx, "stop_queue", component)
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_queue", component)
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_queue", component)
	s.logger.Info("Rating audit queue stopped")
	return nil
}

// EnqueueAudit schedules an immediate audit of eventID, or of every event
// when eventID is zero. Duplicate pending audits are collapsed.
func (s *Service) EnqueueAudit(ctx context.Context, eventID int64) error {
	res, err := s.client.Insert(ctx, LedgerAuditJob{EventID: eventID}, auditInsertOpts())
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_audit", component)
		return fmt.Errorf("failed to enqueue ledger audit: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger audit enqueued",
		attr.EventID(eventID),
		attr.Int64("job_id", res.Job.ID),
		attr.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return nil
}

// MigrateRiver installs or upgrades River's own tables.
func MigrateRiver(ctx context.Context, dsn string) (int, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return 0, fmt.Errorf("failed to run River migrations: %w", err)
	}
	return len(res.Versions), nil
}
