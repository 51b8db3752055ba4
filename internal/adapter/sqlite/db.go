// Package sqlite opens the embedded SQLite verse store and provides the
// transaction plumbing its repositories share.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/alansafahi/soapboxx-versesync/migrations"
)

const driverName = "sqlite"

// Open opens (creating if needed) the database at path, applies the embedded
// migrations and returns the handle. path may be ":memory:".
//
// SQLite allows one writer at a time, so the pool is held to a single
// connection; concurrent callers queue on it instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, MapError(err, "ping sqlite")
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies pending migrations.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	provider, err := migrations.NewProvider(db.DB, migrations.DriverSQLite)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}
