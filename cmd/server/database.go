package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/kanji-api/internal/config"
	"github.com/phrazzld/kanji-api/internal/platform/memory"
	"github.com/phrazzld/kanji-api/internal/platform/migrate"
	"github.com/phrazzld/kanji-api/internal/platform/postgres"
	"github.com/phrazzld/kanji-api/internal/platform/sqlite"
	"github.com/phrazzld/kanji-api/internal/store"
)

// errNoSQLStore is returned by migration commands when the memory store is
// configured.
var errNoSQLStore = errors.New("database.driver memory has no schema to migrate")

// storage bundles the stores selected by database.driver.
type storage struct {
	driver  string
	db      *sql.DB
	source  migrate.Source
	kanji   store.KanjiStore
	reviews store.ReviewLogStore
	uow     store.UnitOfWork
}

// openStorage connects to the configured backend. SQL backends are pinged
// but not migrated.
func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		kanji := memory.NewKanjiStore()
		logger.Warn("using in-memory store, data is lost on exit")
		return &storage{
			driver:  cfg.Driver,
			kanji:   kanji,
			reviews: memory.NewReviewLogStore(),
			uow:     store.DirectUnitOfWork(kanji),
		}, nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		kanji := sqlite.NewKanjiStore(db, logger)
		logger.Info("database connection established",
			slog.String("driver", cfg.Driver),
			slog.String("path", cfg.SQLitePath))
		return &storage{
			driver:  cfg.Driver,
			db:      db,
			source:  sqlite.Migrations,
			kanji:   kanji,
			reviews: sqlite.NewReviewLogStore(db, logger),
			uow:     store.SQLUnitOfWork(db, kanji),
		}, nil

	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		kanji := postgres.NewPostgresKanjiStore(db, logger)
		logger.Info("database connection established", slog.String("driver", cfg.Driver))
		return &storage{
			driver:  cfg.Driver,
			db:      db,
			source:  postgres.Migrations,
			kanji:   kanji,
			reviews: postgres.NewPostgresReviewLogStore(db, logger),
			uow:     store.SQLUnitOfWork(db, kanji),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// openPostgres opens a pgx-backed pool and checks the connection.
func openPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// migrate runs a goose command. The memory store accepts "up" as a no-op so
// serve can call it unconditionally.
func (s *storage) migrate(ctx context.Context, command string, logger *slog.Logger) error {
	if s.db == nil {
		if command == migrate.CommandUp {
			return nil
		}
		return errNoSQLStore
	}
	return migrate.Run(ctx, s.db, s.source, command, logger)
}

// Close releases the database connection, if any.
func (s *storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
