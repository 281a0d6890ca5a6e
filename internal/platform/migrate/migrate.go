// Package migrate applies the embedded goose migrations of the SQL stores.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

// Supported migration commands
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandStatus  = "status"
	CommandVersion = "version"
	CommandReset   = "reset"
)

// Source describes one store's migrations.
type Source struct {
	// Dialect is the goose dialect name, e.g. "postgres" or "sqlite3".
	Dialect string
	// FS holds the SQL files under Dir.
	FS  fs.FS
	Dir string
}

// slogGooseLogger forwards goose output to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. It logs at error level and does not exit.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Run executes a goose command against db. Goose keeps package-level state,
// so Run must not be called concurrently.
func Run(ctx context.Context, db *sql.DB, src Source, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	switch command {
	case CommandUp, CommandDown, CommandStatus, CommandVersion, CommandReset:
	default:
		return fmt.Errorf("unsupported migration command %q", command)
	}

	goose.SetBaseFS(src.FS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&slogGooseLogger{logger: logger.With(slog.String("component", "migrations"))})

	if err := goose.SetDialect(src.Dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect %s: %w", src.Dialect, err)
	}

	logger.Info("running migrations",
		slog.String("command", command),
		slog.String("dialect", src.Dialect))

	if err := goose.RunContext(ctx, command, db, src.Dir); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
