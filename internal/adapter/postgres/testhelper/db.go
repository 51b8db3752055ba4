// Package testhelper provides a migrated PostgreSQL verse store for
// integration tests.
package testhelper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/alansafahi/soapboxx-versesync/migrations"
)

const image = "postgres:17-alpine"

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// SetupTestDB returns a pool on a PostgreSQL container shared by the whole
// test binary. The container is started and migrated on first use. Each call
// truncates verses and unit_status, so callers must not use t.Parallel.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	containerOnce.Do(func() {
		containerDSN, containerErr = startVerseStore()
	})
	if containerErr != nil {
		t.Fatalf("testhelper: verse store container: %v", containerErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, containerDSN)
	if err != nil {
		t.Fatalf("testhelper: pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE verses, unit_status`); err != nil {
		t.Fatalf("testhelper: truncate: %v", err)
	}
	return pool
}

func startVerseStore() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("versesync"),
		tcpostgres.WithUsername("versesync"),
		tcpostgres.WithPassword("versesync"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", fmt.Errorf("run %s: %w", image, err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("migration pool: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := migrations.NewProvider(db, migrations.DriverPostgres)
	if err != nil {
		return "", err
	}
	if _, err := provider.Up(ctx); err != nil {
		return "", fmt.Errorf("migrate: %w", err)
	}
	return dsn, nil
}
