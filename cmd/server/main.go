// Package main implements the kanji-api command: the HTTP server for the
// kanji spaced-repetition engine plus its migrate, import, mcp and token
// subcommands.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "kanji-api",
		Usage:   "Spaced-repetition engine for learning kanji",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (default: ./config.yaml when present)",
				Sources: cli.EnvVars("KANJI_CONFIG_FILE"),
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server (default)",
				Action: runServe,
			},
			{
				Name:      "migrate",
				Usage:     "Manage the SQL schema",
				ArgsUsage: strings.Join(migrateCommands, "|"),
				Action:    runMigrate,
			},
			{
				Name:      "import",
				Usage:     "Import kanji data files once and print a report per file",
				ArgsUsage: "[dir]",
				Action:    runImport,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:  "token",
				Usage: "Issue a bearer token signed with auth.jwt_secret",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Value: "learner", Usage: "Token subject"},
					&cli.DurationFlag{Name: "ttl", Value: 30 * 24 * time.Hour, Usage: "Token lifetime"},
				},
				Action: runToken,
			},
		},
	}
}
