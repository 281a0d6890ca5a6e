package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/kanji-api/internal/importer"
	"github.com/phrazzld/kanji-api/internal/platform/migrate"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// serve migrates the schema, runs the optional auto-import and then runs the
// HTTP server, worker pool, SSE broker and directory watcher until SIGINT,
// SIGTERM or the first component failure.
func (app *application) serve(ctx context.Context) error {
	cfg := app.config
	log := app.logger

	if err := app.storage.migrate(ctx, migrate.CommandUp, log); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if cfg.Import.AutoImport {
		app.autoImport(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.pool.Run(gCtx)
	})

	g.Go(func() error {
		return app.broker.Run(gCtx)
	})

	if cfg.Import.Watch {
		if err := os.MkdirAll(cfg.Import.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		watcher := importer.NewWatcher(cfg.Import.DataDir, app.emitter, importer.DefaultDebounce, log)
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}

	g.Go(func() error {
		log.Info("starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// autoImport seeds an empty store from the data directory. Failures are
// logged; the server starts regardless.
func (app *application) autoImport(ctx context.Context) {
	ran, reports, err := app.importer.AutoImport(ctx, app.config.Import.DataDir)
	if err != nil {
		app.logger.Error("auto-import failed", slog.String("error", err.Error()))
		return
	}
	if !ran {
		return
	}
	created := 0
	for _, r := range reports {
		created += r.Created
	}
	app.logger.Info("auto-import finished",
		slog.Int("files", len(reports)),
		slog.Int("created", created))
}
