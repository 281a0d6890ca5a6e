package postgres

import (
	"embed"

	"github.com/phrazzld/kanji-api/internal/platform/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations describes the PostgreSQL schema migrations.
var Migrations = migrate.Source{
	Dialect: "postgres",
	FS:      migrationsFS,
	Dir:     "migrations",
}
