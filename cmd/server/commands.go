package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/phrazzld/kanji-api/internal/config"
	"github.com/phrazzld/kanji-api/internal/importer"
	"github.com/phrazzld/kanji-api/internal/mcpserver"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/platform/migrate"
	"github.com/phrazzld/kanji-api/internal/service/auth"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the configuration named by --config and installs the
// default logger writing to w.
func loadConfig(cmd *cli.Command, w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("auth_enabled", cfg.Auth.Enabled()))
	return cfg, log, nil
}

// withApplication loads config, opens storage and builds the application
// for the duration of fn.
func withApplication(ctx context.Context, cmd *cli.Command, logOut io.Writer, fn func(*application) error) error {
	cfg, log, err := loadConfig(cmd, logOut)
	if err != nil {
		return err
	}

	st, err := openStorage(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, log, st)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.close()

	return fn(app)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	return withApplication(ctx, cmd, os.Stdout, func(app *application) error {
		return app.serve(ctx)
	})
}

// migrateCommands are the goose commands the migrate subcommand accepts.
var migrateCommands = []string{
	migrate.CommandUp,
	migrate.CommandDown,
	migrate.CommandStatus,
	migrate.CommandVersion,
	migrate.CommandReset,
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	command := cmd.Args().First()
	if command == "" {
		command = migrate.CommandUp
	}
	if !slices.Contains(migrateCommands, command) {
		return fmt.Errorf("unknown migrate command %q, want one of %s",
			command, strings.Join(migrateCommands, ", "))
	}

	cfg, log, err := loadConfig(cmd, os.Stdout)
	if err != nil {
		return err
	}
	st, err := openStorage(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.migrate(ctx, command, log); err != nil {
		if errors.Is(err, errNoSQLStore) {
			return err
		}
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	return withApplication(ctx, cmd, os.Stderr, func(app *application) error {
		if err := app.storage.migrate(ctx, migrate.CommandUp, app.logger); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		dir := cmd.Args().First()
		if dir == "" {
			dir = app.config.Import.DataDir
		}
		reports, err := app.importer.ImportDir(ctx, dir)
		if err != nil {
			return err
		}
		return writeReports(os.Stdout, reports)
	})
}

// writeReports prints one summary line per file followed by its row errors.
func writeReports(w io.Writer, reports []*importer.Report) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "no data files found")
		return err
	}
	for _, r := range reports {
		if _, err := fmt.Fprintf(w, "%s: created=%d updated=%d skipped=%d\n",
			r.Path, r.Created, r.Updated, r.Skipped); err != nil {
			return err
		}
		for _, msg := range r.Errors {
			if _, err := fmt.Fprintf(w, "  %s\n", msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// runMCP serves the MCP tools on stdio. Stdout carries the protocol, so logs
// go to stderr.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	return withApplication(ctx, cmd, os.Stderr, func(app *application) error {
		if err := app.storage.migrate(ctx, migrate.CommandUp, app.logger); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		srv := mcpserver.New(app.kanjiService, app.reviewService, app.statsService, version, app.logger)
		return srv.ServeStdio()
	})
}

func runToken(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd, os.Stderr)
	if err != nil {
		return err
	}
	if !cfg.Auth.Enabled() {
		return errors.New("auth.jwt_secret is not set; the API accepts requests without tokens")
	}
	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	token, err := jwtService.GenerateToken(ctx, cmd.String("subject"), cmd.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
