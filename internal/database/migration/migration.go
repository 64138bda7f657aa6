// Package migration applies the portal schema (sessions, avatars) with goose
// from SQL files embedded in the binary.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

var newProvider = func(db *sql.DB, fsys fs.FS) (migrator, error) {
	return goose.NewProvider(goose.DialectPostgres, db, fsys)
}

// Files returns the embedded migration sources.
func Files() (fs.FS, error) {
	return fs.Sub(embedMigrations, "sql")
}

// Up applies every pending migration and logs one event per applied step.
func Up(ctx context.Context, db *sql.DB, logger *log.Logger, dbHost string) error {
	start := time.Now()
	l := logger.With("component", "database", "db_host", dbHost)
	l.Info("db_migration_start", "status", "in_progress")

	fsys, err := Files()
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	p, err := newProvider(db, fsys)
	if err != nil {
		l.Error("db_migration_failed", "status", "error", "error_message", err.Error())
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := p.Up(ctx)
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		if r.Error != nil {
			l.Error("db_migration_failed",
				"status", "error",
				"migration_step", r.Source.Version,
				"error_message", r.Error.Error(),
				"step_duration_ms", r.Duration.Milliseconds(),
			)
			continue
		}
		l.Info("db_migration_step",
			"status", "success",
			"migration_step", r.Source.Version,
			"step_duration_ms", r.Duration.Milliseconds(),
		)
	}
	if err != nil {
		l.Error("db_migration_failed", "status", "error", "error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("apply migrations: %w", err)
	}

	if len(results) == 0 {
		l.Info("db_migration_skip", "status", "success", "msg", "schema up to date",
			"duration_ms", time.Since(start).Milliseconds())
		return nil
	}
	l.Info("db_migration_success", "status", "success", "applied", len(results),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
