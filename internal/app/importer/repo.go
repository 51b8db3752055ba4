// Package importer fetches chapters of Bible translations from an ordered
// chain of upstream sources and persists them as verse records.
package importer

import (
	"context"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/provider"
)

// Source is one upstream verse provider.
// Implemented by the bulkjson, bibleapi and bolls adapters.
type Source interface {
	ID() string
	Supports(tr domain.Translation) bool
	Fetch(ctx context.Context, tr domain.Translation, book string, chapter int) ([]provider.RawVerse, error)
}

// Pacer paces and backs off calls per source id.
// Implemented by ratelimit.Registry.
type Pacer interface {
	Acquire(ctx context.Context, id string) error
	ReportThrottled(ctx context.Context, id string, hint time.Duration)
	ReportSuccess(id string)
}

// Normalizer cleans raw verse text and assigns its category.
// Implemented by normalize.Normalizer.
type Normalizer interface {
	Normalize(raw string) (string, domain.Category)
}

// VerseStore is the write side of the verse store.
// Implemented by the postgres and sqlite verse repositories.
type VerseStore interface {
	// InsertVerses inserts recs, ignoring existing (reference, translation)
	// pairs, and returns how many rows were actually inserted.
	InsertVerses(ctx context.Context, recs []domain.VerseRecord) (int, error)
	RecordAttempt(ctx context.Context, a domain.UnitAttempt) error
}

// TxManager runs fn in a store transaction carried by ctx.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Planner lists outstanding work and reports overall coverage.
// Implemented by coverage.Auditor.
type Planner interface {
	PendingWorkUnits(ctx context.Context, tr domain.Translation) ([]domain.WorkUnit, error)
	FullCoverageRatio(ctx context.Context) (float64, error)
}

// Processor handles one work unit end to end.
// Implemented by Orchestrator.
type Processor interface {
	Process(ctx context.Context, unit domain.WorkUnit) Outcome
}
