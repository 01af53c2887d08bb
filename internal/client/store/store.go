// Package store opens the on-device SQLite database and applies versioned
// migrations. It is the only place the schema is created or upgraded.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/vinitafleet/driveops/internal/client/migrations"
)

// Open opens (creating if needed) the local database at dsn and brings the
// schema up to the current version. The caller owns closing the returned DB.
//
// The drain loop and UI enqueues share the returned handle; busy_timeout
// makes writers wait instead of failing with SQLITE_BUSY. It rides in the
// DSN because database/sql opens extra pooled connections that never see a
// pragma issued over a sibling connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dsn+sep+"_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
