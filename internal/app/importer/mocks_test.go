package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// chapterVerses returns n well-formed raw verses numbered from 1.
func chapterVerses(n int) []provider.RawVerse {
	out := make([]provider.RawVerse, n)
	for i := range out {
		out[i] = provider.RawVerse{Number: i + 1, Text: fmt.Sprintf("Verse %d of the chapter.", i+1)}
	}
	return out
}

// ---------------------------------------------------------------------------
// Source
// ---------------------------------------------------------------------------

type mockSource struct {
	mu sync.Mutex

	id string
	// supported limits Supports; nil means every translation.
	supported map[domain.Translation]bool
	// fetchFn is called with the 1-based call number.
	fetchFn func(ctx context.Context, call int, unit domain.WorkUnit) ([]provider.RawVerse, error)

	calls int
}

func (m *mockSource) ID() string { return m.id }

func (m *mockSource) Supports(tr domain.Translation) bool {
	if m.supported == nil {
		return true
	}
	return m.supported[tr]
}

func (m *mockSource) Fetch(ctx context.Context, tr domain.Translation, book string, chapter int) ([]provider.RawVerse, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.fetchFn(ctx, call, domain.WorkUnit{Translation: tr, Book: book, Chapter: chapter})
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// okSource returns the full canonical chapter on every call.
func okSource(id string) *mockSource {
	return &mockSource{id: id, fetchFn: func(_ context.Context, _ int, u domain.WorkUnit) ([]provider.RawVerse, error) {
		return chapterVerses(u.ExpectedVerses()), nil
	}}
}

// failingSource returns err on every call.
func failingSource(id string, err error) *mockSource {
	return &mockSource{id: id, fetchFn: func(context.Context, int, domain.WorkUnit) ([]provider.RawVerse, error) {
		return nil, err
	}}
}

// ---------------------------------------------------------------------------
// Pacer
// ---------------------------------------------------------------------------

type mockPacer struct {
	mu sync.Mutex

	acquireErr error
	hints      []time.Duration

	callLog []string
}

func (m *mockPacer) logCall(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callLog = append(m.callLog, name)
}

func (m *mockPacer) Acquire(ctx context.Context, id string) error {
	m.logCall("Acquire:" + id)
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.acquireErr
}

func (m *mockPacer) ReportThrottled(_ context.Context, id string, hint time.Duration) {
	m.logCall("ReportThrottled:" + id)
	m.mu.Lock()
	m.hints = append(m.hints, hint)
	m.mu.Unlock()
}

func (m *mockPacer) ReportSuccess(id string) {
	m.logCall("ReportSuccess:" + id)
}

func (m *mockPacer) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.callLog...)
}

// ---------------------------------------------------------------------------
// VerseStore and TxManager
// ---------------------------------------------------------------------------

// mockStore keeps verses keyed by (reference, translation) so repeated
// inserts behave like the real unique constraint.
type mockStore struct {
	mu sync.Mutex

	verses   map[string]domain.VerseRecord
	attempts map[domain.WorkUnit]domain.UnitAttempt
	chunks   []int

	insertErr        error
	recordAttemptErr error

	callLog []string
}

func newMockStore() *mockStore {
	return &mockStore{
		verses:   make(map[string]domain.VerseRecord),
		attempts: make(map[domain.WorkUnit]domain.UnitAttempt),
	}
}

func (m *mockStore) logCall(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callLog = append(m.callLog, name)
}

func (m *mockStore) InsertVerses(ctx context.Context, recs []domain.VerseRecord) (int, error) {
	m.logCall("InsertVerses")
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, len(recs))
	n := 0
	for _, r := range recs {
		key := r.Reference + "|" + string(r.Translation)
		if _, ok := m.verses[key]; ok {
			continue
		}
		m.verses[key] = r
		n++
	}
	return n, nil
}

func (m *mockStore) RecordAttempt(_ context.Context, a domain.UnitAttempt) error {
	m.logCall("RecordAttempt")
	if m.recordAttemptErr != nil {
		return m.recordAttemptErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.Unit] = a
	return nil
}

func (m *mockStore) verseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.verses)
}

func (m *mockStore) attempt(u domain.WorkUnit) (domain.UnitAttempt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[u]
	return a, ok
}

func (m *mockStore) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.callLog...)
}

type mockTxManager struct {
	mu    sync.Mutex
	calls int
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Planner and Processor
// ---------------------------------------------------------------------------

type mockPlanner struct {
	mu sync.Mutex

	pending     map[domain.Translation][]domain.WorkUnit
	pendingErr  error
	ratio       float64
	coverageErr error

	coverageCalls int
}

func (m *mockPlanner) PendingWorkUnits(_ context.Context, tr domain.Translation) ([]domain.WorkUnit, error) {
	if m.pendingErr != nil {
		return nil, m.pendingErr
	}
	return m.pending[tr], nil
}

func (m *mockPlanner) FullCoverageRatio(context.Context) (float64, error) {
	m.mu.Lock()
	m.coverageCalls++
	m.mu.Unlock()
	return m.ratio, m.coverageErr
}

type mockProcessor struct {
	mu sync.Mutex

	processFn func(ctx context.Context, unit domain.WorkUnit) Outcome
	seen      []domain.WorkUnit
}

func (m *mockProcessor) Process(ctx context.Context, unit domain.WorkUnit) Outcome {
	m.mu.Lock()
	m.seen = append(m.seen, unit)
	m.mu.Unlock()
	return m.processFn(ctx, unit)
}

func (m *mockProcessor) processed() []domain.WorkUnit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.WorkUnit(nil), m.seen...)
}

// units returns the first n chapters of the canon for tr.
func units(tr domain.Translation, n int) []domain.WorkUnit {
	return domain.EnumerateWorkUnits(tr)[:n]
}
