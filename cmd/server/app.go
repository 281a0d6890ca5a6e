package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/kanji-api/internal/config"
	"github.com/phrazzld/kanji-api/internal/domain/srs"
	"github.com/phrazzld/kanji-api/internal/events"
	"github.com/phrazzld/kanji-api/internal/importer"
	"github.com/phrazzld/kanji-api/internal/service"
	"github.com/phrazzld/kanji-api/internal/service/auth"
	"github.com/phrazzld/kanji-api/internal/service/kanji_review"
	"github.com/phrazzld/kanji-api/internal/sse"
	"github.com/phrazzld/kanji-api/internal/task"
)

// statsThrottle bounds how often SSE clients are told to refresh statistics.
const statsThrottle = 2 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	storage *storage

	// Event system
	emitter *events.InMemoryEventEmitter
	broker  *sse.Broker

	// Import pipeline: import.requested events become tasks on queue
	importer *importer.Importer
	queue    *task.TaskQueue
	pool     *task.WorkerPool

	kanjiService  service.KanjiService
	reviewService kanji_review.ReviewService
	statsService  service.StatsService

	// jwtService is nil when auth.jwt_secret is empty.
	jwtService auth.JWTService
}

// newApplication wires services, event handlers and the import pipeline on
// top of an opened storage. Nothing is started.
func newApplication(cfg *config.Config, logger *slog.Logger, st *storage) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		storage: st,
	}

	params, err := srs.NewParams(srs.ParamsConfig{
		IntervalDays:  cfg.SRS.IntervalsDays,
		CorrectStep:   cfg.SRS.CorrectStep,
		IncorrectStep: cfg.SRS.IncorrectStep,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid srs configuration: %w", err)
	}
	srsService := srs.NewServiceWithParams(params)

	loc, err := cfg.SRS.Location()
	if err != nil {
		return nil, err
	}

	// Handlers run synchronously in registration order: the review log is
	// written before SSE clients hear about the review.
	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.NewReviewLogHandler(st.reviews, logger), events.TypeReviewApplied)

	app.broker = sse.NewBroker(statsThrottle)
	app.emitter.RegisterHandler(app.broker)

	app.importer = importer.NewImporter(st.kanji, st.uow, logger)
	app.queue = task.NewTaskQueue(cfg.Import.QueueSize, logger)
	app.pool = task.NewWorkerPool(app.queue, task.WorkerPoolConfig{WorkerCount: cfg.Import.WorkerCount}, logger)
	app.pool.SetErrorHandler(func(t task.Task, err error) {
		logger.Warn("import task failed", "task_id", t.ID(), "payload", string(t.Payload()), "error", err)
	})
	app.emitter.RegisterHandler(task.NewTaskFactoryEventHandler(
		importer.NewTaskFactory(app.importer, logger), app.queue, logger),
		events.TypeImportRequested)

	app.kanjiService, err = service.NewKanjiService(st.kanji, st.reviews, app.emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kanji service: %w", err)
	}
	app.reviewService = kanji_review.NewReviewService(st.kanji, srsService, app.emitter, logger,
		kanji_review.WithMaxRetries(cfg.SRS.MaxRetries))
	app.statsService, err = service.NewStatsService(st.kanji, loc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	if cfg.Auth.Enabled() {
		app.jwtService, err = auth.NewJWTService(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		logger.Info("bearer token authentication enabled")
	}

	return app, nil
}

// close releases background resources and the database connection.
func (app *application) close() {
	app.broker.Close()
	if pending := app.queue.Len(); pending > 0 {
		app.logger.Warn("discarding queued imports", "pending", pending)
	}
	app.queue.Close()
	if err := app.storage.Close(); err != nil {
		app.logger.Error("error closing database connection", "error", err)
	}
}
