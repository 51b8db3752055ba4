package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alansafahi/soapboxx-versesync/internal/adapter/provider/bibleapi"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/provider/bolls"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/provider/bulkjson"
	"github.com/alansafahi/soapboxx-versesync/internal/app/importer"
	"github.com/alansafahi/soapboxx-versesync/internal/config"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/normalize"
	"github.com/alansafahi/soapboxx-versesync/internal/service/coverage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sqliteConfig(apiURL string) *config.Config {
	src := config.SourceConfig{BaseURL: apiURL, BaseDelay: time.Millisecond, CeilingDelay: 5 * time.Millisecond, Timeout: time.Second}
	return &config.Config{
		Store: config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
		Import: config.ImportConfig{
			Translations:     []domain.Translation{domain.TranslationKJV},
			MaxWorkers:       2,
			BatchSizeRows:    100,
			PartialThreshold: 0.5,
			PersistTimeout:   5 * time.Second,
			MaxTextLength:    2000,
		},
		Sources: config.SourcesConfig{
			Order:    []string{config.SourceBibleAPI},
			BibleAPI: src,
		},
		Server: config.ServerConfig{ShutdownTimeout: time.Second},
	}
}

func newSQLiteApp(t *testing.T, apiURL string) *App {
	t.Helper()
	a, err := New(context.Background(), sqliteConfig(apiURL), quietLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestBuildSources_FollowsOrder(t *testing.T) {
	t.Parallel()

	cfg := config.SourcesConfig{
		Order: []string{config.SourceBolls, config.SourceBulkJSON, config.SourceBibleAPI},
		Bolls: config.SourceConfig{BaseURL: "http://bolls.test"},
	}

	got := buildSources(cfg, quietLogger())

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{bolls.SourceID, bulkjson.SourceID, bibleapi.SourceID}, ids)
}

func TestBuildSources_OnlyOrderedSources(t *testing.T) {
	t.Parallel()

	// Validation drops disabled sources from Order; nothing else is built.
	cfg := config.SourcesConfig{
		Order:    []string{config.SourceBibleAPI},
		BulkJSON: config.SourceConfig{Disabled: true},
	}

	got := buildSources(cfg, quietLogger())
	require.Len(t, got, 1)
	assert.Equal(t, bibleapi.SourceID, got[0].ID())
}

func TestBuildPolicies(t *testing.T) {
	t.Parallel()

	cfg := config.SourcesConfig{
		Order:    []string{config.SourceBulkJSON, config.SourceBolls},
		BulkJSON: config.SourceConfig{BaseDelay: 10 * time.Millisecond, CeilingDelay: time.Second},
		Bolls:    config.SourceConfig{BaseDelay: 2 * time.Second, CeilingDelay: time.Minute},
	}

	got := buildPolicies(cfg)
	require.Len(t, got, 2)
	assert.Equal(t, 10*time.Millisecond, got[config.SourceBulkJSON].BaseDelay)
	assert.Equal(t, time.Minute, got[config.SourceBolls].CeilingDelay)
}

func TestBuildRules(t *testing.T) {
	t.Parallel()

	t.Run("empty keeps defaults", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, buildRules(nil))
	})

	t.Run("one rule per keyword in order", func(t *testing.T) {
		t.Parallel()

		got := buildRules([]config.CategoryRule{
			{Category: "peace", Keywords: []string{"still", "rest"}},
			{Category: "Joy", Keywords: []string{"rejoice"}},
		})

		assert.Equal(t, []normalize.Rule{
			{Keyword: "still", Category: domain.CategoryPeace},
			{Keyword: "rest", Category: domain.CategoryPeace},
			{Keyword: "rejoice", Category: domain.CategoryJoy},
		}, got)
	})
}

func TestNew_UnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := sqliteConfig("http://unused.test")
	cfg.Store.Driver = "mysql"

	_, err := New(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestApp_Handler(t *testing.T) {
	t.Parallel()

	a := newSQLiteApp(t, "http://unused.test")
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/coverage")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep coverage.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	require.Len(t, rep.Translations, 1)
	assert.Equal(t, domain.TranslationKJV, rep.Translations[0].Translation)
	assert.Zero(t, rep.Translations[0].Imported)
	assert.False(t, rep.Complete)
}

func TestApp_MigrateStatus(t *testing.T) {
	t.Parallel()

	a := newSQLiteApp(t, "http://unused.test")

	var buf bytes.Buffer
	require.NoError(t, a.Migrate(context.Background(), MigrateStatus, &buf))
	assert.Contains(t, buf.String(), "VERSION")
	assert.Contains(t, buf.String(), "applied")
	assert.NotContains(t, buf.String(), "pending")

	buf.Reset()
	require.NoError(t, a.Migrate(context.Background(), MigrateUp, &buf))
	assert.Equal(t, "0 migration(s) applied\n", buf.String())

	err := a.Migrate(context.Background(), "down", &buf)
	require.Error(t, err)
}

func TestApp_RunBatch_UsesConfiguredBudget(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(api.Close)

	cfg := sqliteConfig(api.URL)
	cfg.Import.MaxUnits = 3

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	res, err := a.RunBatch(context.Background(), importer.Budget{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Planned)
	assert.Equal(t, 3, res.Gapped)
	assert.Equal(t, importer.StopUnitBudget, res.StopReason)
	assert.Len(t, res.Gaps, 3)

	// Gapped units are recorded and stay pending.
	rep, err := a.Coverage(context.Background())
	require.NoError(t, err)
	assert.Len(t, rep.Gaps, 3)
	assert.Equal(t, 3, rep.Translations[0].GappedUnits)
}

func TestApp_Serve_StopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := sqliteConfig("http://unused.test")
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
