// Package migrations embeds the goose migrations for both verse store
// backends.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Driver names accepted by NewProvider.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// FS returns the migration files for driver.
func FS(driver string) (fs.FS, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return fs.Sub(files, driver)
	default:
		return nil, fmt.Errorf("migrations: unknown driver %q", driver)
	}
}

// NewProvider returns a goose provider bound to db for driver.
func NewProvider(db *sql.DB, driver string) (*goose.Provider, error) {
	fsys, err := FS(driver)
	if err != nil {
		return nil, err
	}

	dialect := goose.DialectPostgres
	if driver == DriverSQLite {
		dialect = goose.DialectSQLite3
	}

	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrations: new provider: %w", err)
	}
	return p, nil
}
