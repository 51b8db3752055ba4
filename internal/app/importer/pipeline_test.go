package importer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alansafahi/soapboxx-versesync/internal/adapter/provider/bibleapi"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/sqlite"
	sqliteverse "github.com/alansafahi/soapboxx-versesync/internal/adapter/sqlite/verse"
	"github.com/alansafahi/soapboxx-versesync/internal/app/importer"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/normalize"
	"github.com/alansafahi/soapboxx-versesync/internal/ratelimit"
	"github.com/alansafahi/soapboxx-versesync/internal/service/coverage"
)

// fakeBibleAPI serves bible-api.com style chapters. Chapters listed in
// failing answer 500 until healed.
type fakeBibleAPI struct {
	mu      sync.Mutex
	failing map[string]bool
	hits    map[string]int
}

func (f *fakeBibleAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	passage := strings.TrimPrefix(r.URL.Path, "/")

	f.mu.Lock()
	f.hits[passage]++
	fail := f.failing[passage]
	f.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sp := strings.LastIndexByte(passage, ' ')
	book := passage[:sp]
	var chapter int
	fmt.Sscanf(passage[sp+1:], "%d", &chapter)

	n := domain.ExpectedVerses(book, chapter)
	if n == 0 {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		return
	}

	type verse struct {
		BookName string `json:"book_name"`
		Chapter  int    `json:"chapter"`
		Verse    int    `json:"verse"`
		Text     string `json:"text"`
	}
	verses := make([]verse, n)
	for i := range verses {
		verses[i] = verse{BookName: book, Chapter: chapter, Verse: i + 1, Text: fmt.Sprintf("%d The word of verse %d.\n", i+1, i+1)}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"reference":      passage,
		"verses":         verses,
		"translation_id": r.URL.Query().Get("translation"),
	})
}

func (f *fakeBibleAPI) hitCount(passage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[passage]
}

func (f *fakeBibleAPI) heal(passage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failing, passage)
}

// bookPlanner narrows the auditor's plan to a few books so a run stays small.
type bookPlanner struct {
	*coverage.Auditor
	books map[string]bool
}

func (p bookPlanner) PendingWorkUnits(ctx context.Context, tr domain.Translation) ([]domain.WorkUnit, error) {
	all, err := p.Auditor.PendingWorkUnits(ctx, tr)
	if err != nil {
		return nil, err
	}
	var out []domain.WorkUnit
	for _, u := range all {
		if p.books[u.Book] {
			out = append(out, u)
		}
	}
	return out, nil
}

type pipeline struct {
	db        *sqlx.DB
	auditor   *coverage.Auditor
	scheduler *importer.Scheduler
}

func newPipeline(t *testing.T, apiURL string, books ...string) pipeline {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := sqliteverse.New(db)
	trs := []domain.Translation{domain.TranslationKJV}

	pacer := ratelimit.NewRegistry(map[string]ratelimit.Policy{
		bibleapi.SourceID: {BaseDelay: time.Millisecond, CeilingDelay: 5 * time.Millisecond},
	}, logger)
	gw := importer.NewGateway(repo, sqlite.NewTxManager(db), importer.GatewayConfig{BatchSize: 500, RecordStatus: true})
	orch := importer.NewOrchestrator(logger,
		[]importer.Source{bibleapi.NewProviderWithURL(apiURL, 5*time.Second, logger)},
		pacer, normalize.New(nil), gw,
		importer.OrchestratorConfig{MaxRetries: 0, PartialThreshold: 0.5, PersistTimeout: 5 * time.Second},
	)
	aud := coverage.NewAuditor(logger, repo, coverage.Config{Translations: trs})

	bookSet := make(map[string]bool, len(books))
	for _, b := range books {
		bookSet[b] = true
	}
	sched := importer.NewScheduler(logger, orch, bookPlanner{Auditor: aud, books: bookSet},
		importer.SchedulerConfig{Translations: trs, MaxWorkers: 2})

	return pipeline{db: db, auditor: aud, scheduler: sched}
}

func TestPipeline_Obadiah(t *testing.T) {
	api := &fakeBibleAPI{failing: map[string]bool{}, hits: map[string]int{}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	p := newPipeline(t, srv.URL, "Obadiah")
	ctx := context.Background()

	res, err := p.scheduler.RunBatch(ctx, importer.Budget{})
	require.NoError(t, err)

	assert.Equal(t, importer.StopCompleted, res.StopReason)
	assert.Equal(t, 1, res.Planned)
	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, 21, res.Inserted)
	assert.Empty(t, res.Gaps)

	var refs []string
	require.NoError(t, p.db.SelectContext(ctx, &refs,
		`SELECT reference FROM verses WHERE translation = 'KJV' AND book = 'Obadiah' ORDER BY verse`))
	require.Len(t, refs, 21)
	for i, ref := range refs {
		assert.Equal(t, fmt.Sprintf("Obadiah 1:%d", i+1), ref)
	}

	var text string
	require.NoError(t, p.db.GetContext(ctx, &text, `SELECT text FROM verses WHERE reference = 'Obadiah 1:1'`))
	assert.Equal(t, "The word of verse 1.", text, "verse number artifact stripped")

	var status string
	require.NoError(t, p.db.GetContext(ctx, &status,
		`SELECT status FROM unit_status WHERE translation = 'KJV' AND book = 'Obadiah' AND chapter = 1`))
	assert.Equal(t, "persisted", status)

	// A second run finds nothing pending and writes nothing.
	res, err = p.scheduler.RunBatch(ctx, importer.Budget{})
	require.NoError(t, err)
	assert.Zero(t, res.Planned)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, 1, api.hitCount("Obadiah 1"))
}

func TestPipeline_GapsAreRetriedNextRun(t *testing.T) {
	api := &fakeBibleAPI{failing: map[string]bool{"Jude 1": true}, hits: map[string]int{}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	p := newPipeline(t, srv.URL, "Obadiah", "Jude")
	ctx := context.Background()

	res, err := p.scheduler.RunBatch(ctx, importer.Budget{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, 1, res.Gapped)
	assert.Equal(t, []domain.WorkUnit{{Translation: domain.TranslationKJV, Book: "Jude", Chapter: 1}}, res.Gaps)

	rep, err := p.auditor.Report(ctx)
	require.NoError(t, err)
	require.Len(t, rep.Gaps, 1)
	assert.Equal(t, "Jude", rep.Gaps[0].Book)
	assert.Equal(t, 25, rep.Gaps[0].Missing)
	assert.Contains(t, rep.Gaps[0].Error, "bibleapi")

	api.heal("Jude 1")

	res, err = p.scheduler.RunBatch(ctx, importer.Budget{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Planned, "only the gapped unit is pending")
	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, 25, res.Inserted)
	assert.Empty(t, res.Gaps)

	rep, err = p.auditor.Report(ctx)
	require.NoError(t, err)
	assert.Empty(t, rep.Gaps)
	assert.Equal(t, 46, rep.Translations[0].Imported)
}

func TestPipeline_UnitBudgetResumes(t *testing.T) {
	api := &fakeBibleAPI{failing: map[string]bool{}, hits: map[string]int{}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	// Ruth has four chapters.
	p := newPipeline(t, srv.URL, "Ruth")
	ctx := context.Background()

	res, err := p.scheduler.RunBatch(ctx, importer.Budget{MaxUnits: 3})
	require.NoError(t, err)
	assert.Equal(t, importer.StopUnitBudget, res.StopReason)
	assert.Equal(t, 3, res.Persisted)

	res, err = p.scheduler.RunBatch(ctx, importer.Budget{MaxUnits: 3})
	require.NoError(t, err)
	assert.Equal(t, importer.StopCompleted, res.StopReason)
	assert.Equal(t, 1, res.Planned)
	assert.Equal(t, domain.ExpectedVerses("Ruth", 4), res.Inserted)

	cov, err := p.auditor.TranslationCoverage(ctx, domain.TranslationKJV)
	require.NoError(t, err)
	assert.InDelta(t, 85.0/31102.0, cov, 1e-12)
}
