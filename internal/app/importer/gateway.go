package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// DefaultBatchSize is the number of rows sent to the store per call.
const DefaultBatchSize = 500

// GatewayConfig controls persistence.
type GatewayConfig struct {
	// BatchSize is the chunk size for InsertVerses; callers clamp it.
	BatchSize int
	// RecordStatus persists unit attempts through VerseStore.RecordAttempt.
	RecordStatus bool
}

// Gateway writes verse records and unit attempts to the store.
// Every store error it returns wraps domain.ErrStoreUnavailable.
type Gateway struct {
	store VerseStore
	txm   TxManager
	cfg   GatewayConfig
}

// NewGateway creates a Gateway. txm may be nil, in which case a unit's
// chunks and status are written without an enclosing transaction.
func NewGateway(store VerseStore, txm TxManager, cfg GatewayConfig) *Gateway {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Gateway{store: store, txm: txm, cfg: cfg}
}

// UpsertBatch inserts recs in chunks, ignoring verses that already exist.
// conflicted counts the records absorbed by the (reference, translation) key.
func (g *Gateway) UpsertBatch(ctx context.Context, recs []domain.VerseRecord) (inserted, conflicted int, err error) {
	inserted, err = batchProcess(recs, g.cfg.BatchSize, func(chunk []domain.VerseRecord) (int, error) {
		return g.store.InsertVerses(ctx, chunk)
	})
	if err != nil {
		return inserted, 0, storeError("insert verses", err)
	}
	return inserted, len(recs) - inserted, nil
}

// RecordAttempt persists a unit attempt when status recording is enabled.
func (g *Gateway) RecordAttempt(ctx context.Context, a domain.UnitAttempt) error {
	if !g.cfg.RecordStatus {
		return nil
	}
	if err := g.store.RecordAttempt(ctx, a); err != nil {
		return storeError("record attempt", err)
	}
	return nil
}

// PersistUnit writes a unit's records and its attempt together, inside one
// transaction when a TxManager is configured.
func (g *Gateway) PersistUnit(ctx context.Context, recs []domain.VerseRecord, a domain.UnitAttempt) (inserted, conflicted int, err error) {
	write := func(ctx context.Context) error {
		var err error
		inserted, conflicted, err = g.UpsertBatch(ctx, recs)
		if err != nil {
			return err
		}
		return g.RecordAttempt(ctx, a)
	}

	if g.txm == nil {
		err = write(ctx)
	} else {
		err = g.txm.RunInTx(ctx, write)
	}
	if err != nil {
		return 0, 0, storeError("persist "+a.Unit.String(), err)
	}
	return inserted, conflicted, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// batchProcess splits items into chunks of batchSize and calls fn for each,
// summing the returned counts. It stops at the first error.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
