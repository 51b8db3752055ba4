package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/alansafahi/soapboxx-versesync/internal/adapter/postgres"
	pgverse "github.com/alansafahi/soapboxx-versesync/internal/adapter/postgres/verse"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/sqlite"
	sqliteverse "github.com/alansafahi/soapboxx-versesync/internal/adapter/sqlite/verse"
	"github.com/alansafahi/soapboxx-versesync/internal/app/importer"
	"github.com/alansafahi/soapboxx-versesync/internal/config"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// verseRepo is everything the app needs from a verse store backend.
type verseRepo interface {
	InsertVerses(ctx context.Context, recs []domain.VerseRecord) (int, error)
	RecordAttempt(ctx context.Context, a domain.UnitAttempt) error
	CountByTranslation(ctx context.Context, tr domain.Translation) (int, error)
	CountByChapter(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]int, error)
	CountFullyCovered(ctx context.Context, trs []domain.Translation, refs []string) (int, error)
	TranslationsForReference(ctx context.Context, ref string) ([]domain.Translation, error)
	UnitStatuses(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]domain.UnitAttempt, error)
	Ping(ctx context.Context) error
}

var (
	_ verseRepo = (*pgverse.Repo)(nil)
	_ verseRepo = (*sqliteverse.Repo)(nil)
)

// backend is an opened verse store.
type backend struct {
	driver string
	repo   verseRepo
	txm    importer.TxManager
	// db is the database/sql handle migrations run on.
	db    *sql.DB
	close func()
}

// openBackend connects to the configured store. The SQLite store is
// migrated on open; PostgreSQL is migrated only by the migrate command.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		db := stdlib.OpenDBFromPool(pool)
		return &backend{
			driver: config.DriverPostgres,
			repo:   pgverse.New(pool),
			txm:    postgres.NewTxManager(pool),
			db:     db,
			close: func() {
				_ = db.Close()
				pool.Close()
			},
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{
			driver: config.DriverSQLite,
			repo:   sqliteverse.New(db),
			txm:    sqlite.NewTxManager(db),
			db:     db.DB,
			close:  func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
