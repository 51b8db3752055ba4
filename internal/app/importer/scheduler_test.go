package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/pkg/ctxutil"
)

func persistedProcessor() *mockProcessor {
	return &mockProcessor{processFn: func(_ context.Context, u domain.WorkUnit) Outcome {
		return Outcome{Unit: u, Status: StatusPersisted, Accepted: u.ExpectedVerses(), Inserted: u.ExpectedVerses()}
	}}
}

func newTestScheduler(proc Processor, planner Planner, trs []domain.Translation, workers int) *Scheduler {
	return NewScheduler(testLogger(), proc, planner, SchedulerConfig{Translations: trs, MaxWorkers: workers})
}

func TestRunBatch_Completed(t *testing.T) {
	t.Parallel()

	kjv := units(domain.TranslationKJV, 10)
	web := units(domain.TranslationWEB, 5)
	planner := &mockPlanner{
		pending: map[domain.Translation][]domain.WorkUnit{domain.TranslationKJV: kjv, domain.TranslationWEB: web},
		ratio:   0.25,
	}

	gappedUnit := web[3]
	proc := &mockProcessor{processFn: func(_ context.Context, u domain.WorkUnit) Outcome {
		switch u {
		case gappedUnit:
			return Outcome{Unit: u, Status: StatusGapped}
		case kjv[0]:
			return Outcome{Unit: u, Status: StatusPartial, Inserted: 3, Conflicted: 2}
		default:
			return Outcome{Unit: u, Status: StatusPersisted, Inserted: 10}
		}
	}}

	s := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV, domain.TranslationWEB}, 3)
	res, err := s.RunBatch(context.Background(), Budget{})
	require.NoError(t, err)

	assert.Equal(t, StopCompleted, res.StopReason)
	assert.Equal(t, 15, res.Planned)
	assert.Equal(t, 15, res.Processed)
	assert.Equal(t, 13, res.Persisted)
	assert.Equal(t, 1, res.Partial)
	assert.Equal(t, 1, res.Gapped)
	assert.Equal(t, 133, res.Inserted)
	assert.Equal(t, 2, res.Conflicted)
	assert.Equal(t, []domain.WorkUnit{gappedUnit}, res.Gaps)
	assert.InDelta(t, 25.0, res.CoveragePercent, 1e-9)
	assert.NotEmpty(t, res.RunID)
	assert.ElementsMatch(t, append(append([]domain.WorkUnit{}, kjv...), web...), proc.processed())
}

func TestRunBatch_NothingPending(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{ratio: 1}
	proc := persistedProcessor()

	res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 2).
		RunBatch(context.Background(), Budget{})
	require.NoError(t, err)

	assert.Equal(t, StopCompleted, res.StopReason)
	assert.Zero(t, res.Planned)
	assert.Empty(t, proc.processed())
	assert.Equal(t, 100.0, res.CoveragePercent)
}

func TestRunBatch_UnitBudget(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{pending: map[domain.Translation][]domain.WorkUnit{
		domain.TranslationKJV: units(domain.TranslationKJV, 10),
	}}
	proc := persistedProcessor()

	res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 4).
		RunBatch(context.Background(), Budget{MaxUnits: 3})
	require.NoError(t, err)

	assert.Equal(t, StopUnitBudget, res.StopReason)
	assert.Equal(t, 3, res.Planned)
	assert.Equal(t, 3, res.Processed)
	assert.ElementsMatch(t, units(domain.TranslationKJV, 3), proc.processed(), "pending order is kept")
}

func TestRunBatch_DurationBudget(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{pending: map[domain.Translation][]domain.WorkUnit{
		domain.TranslationKJV: units(domain.TranslationKJV, 100),
	}}
	proc := &mockProcessor{processFn: func(_ context.Context, u domain.WorkUnit) Outcome {
		time.Sleep(30 * time.Millisecond)
		return Outcome{Unit: u, Status: StatusPersisted}
	}}

	start := time.Now()
	res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 1).
		RunBatch(context.Background(), Budget{MaxDuration: 50 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, StopDurationBudget, res.StopReason)
	assert.Equal(t, 100, res.Planned)
	assert.Positive(t, res.Processed)
	assert.Less(t, res.Processed, 10)
	assert.Equal(t, res.Processed, res.Persisted, "in-flight units complete")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunBatch_Canceled(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{pending: map[domain.Translation][]domain.WorkUnit{
		domain.TranslationKJV: units(domain.TranslationKJV, 60),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int32
	proc := &mockProcessor{processFn: func(ctx context.Context, u domain.WorkUnit) Outcome {
		if ctx.Err() != nil {
			return Outcome{Unit: u, Status: StatusCanceled}
		}
		if n.Add(1) == 2 {
			cancel()
		}
		return Outcome{Unit: u, Status: StatusPersisted}
	}}

	res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 1).RunBatch(ctx, Budget{})
	require.NoError(t, err, "cancellation is not a failure")

	assert.Equal(t, StopCanceled, res.StopReason)
	assert.Equal(t, 2, res.Persisted)
	assert.Less(t, res.Processed+res.Canceled, 60)
	assert.Equal(t, 1, planner.coverageCalls, "coverage is still reported")
}

func TestRunBatch_StoreFailureStopsBatch(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{pending: map[domain.Translation][]domain.WorkUnit{
		domain.TranslationKJV: units(domain.TranslationKJV, 50),
	}}
	storeErr := fmt.Errorf("persist: %w", domain.ErrStoreUnavailable)
	proc := &mockProcessor{processFn: func(_ context.Context, u domain.WorkUnit) Outcome {
		if u.Book == "Genesis" && u.Chapter == 3 {
			return Outcome{Unit: u, Status: StatusFailed, Err: storeErr}
		}
		return Outcome{Unit: u, Status: StatusPersisted}
	}}

	res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 1).
		RunBatch(context.Background(), Budget{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, StopStoreUnavailable, res.StopReason)
	assert.Equal(t, 1, res.Failed)
	assert.Less(t, len(proc.processed()), 50)
	assert.Zero(t, planner.coverageCalls)
}

func TestRunBatch_PlanningFailure(t *testing.T) {
	t.Parallel()

	t.Run("store", func(t *testing.T) {
		t.Parallel()
		planner := &mockPlanner{pendingErr: errors.New("no such table: verses")}
		proc := persistedProcessor()

		res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 1).
			RunBatch(context.Background(), Budget{})

		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Equal(t, StopStoreUnavailable, res.StopReason)
		assert.Empty(t, proc.processed())
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		planner := &mockPlanner{pendingErr: fmt.Errorf("chapter counts: %w", context.Canceled)}

		res, err := newTestScheduler(persistedProcessor(), planner, []domain.Translation{domain.TranslationKJV}, 1).
			RunBatch(context.Background(), Budget{})

		require.NoError(t, err)
		assert.Equal(t, StopCanceled, res.StopReason)
	})
}

func TestRunBatch_CoverageUnavailableIsNotFatal(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{
		pending:     map[domain.Translation][]domain.WorkUnit{domain.TranslationKJV: units(domain.TranslationKJV, 2)},
		coverageErr: errors.New("timeout"),
	}

	res, err := newTestScheduler(persistedProcessor(), planner, []domain.Translation{domain.TranslationKJV}, 1).
		RunBatch(context.Background(), Budget{})
	require.NoError(t, err)
	assert.Equal(t, StopCompleted, res.StopReason)
	assert.Zero(t, res.CoveragePercent)
}

func TestRunBatch_RunIDInContext(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{pending: map[domain.Translation][]domain.WorkUnit{
		domain.TranslationKJV: units(domain.TranslationKJV, 4),
	}}

	var mu sync.Mutex
	seen := map[uuid.UUID]bool{}
	proc := &mockProcessor{processFn: func(ctx context.Context, u domain.WorkUnit) Outcome {
		id, ok := ctxutil.RunIDFromCtx(ctx)
		if ok {
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}
		return Outcome{Unit: u, Status: StatusPersisted}
	}}

	res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 2).
		RunBatch(context.Background(), Budget{})
	require.NoError(t, err)

	require.Len(t, seen, 1, "every unit sees the same run id")
	for id := range seen {
		assert.Equal(t, res.RunID, id.String())
	}
}

func TestRunBatch_WorkerBound(t *testing.T) {
	t.Parallel()

	planner := &mockPlanner{pending: map[domain.Translation][]domain.WorkUnit{
		domain.TranslationKJV: units(domain.TranslationKJV, 20),
	}}

	var inFlight, peak atomic.Int32
	proc := &mockProcessor{processFn: func(_ context.Context, u domain.WorkUnit) Outcome {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return Outcome{Unit: u, Status: StatusPersisted}
	}}

	res, err := newTestScheduler(proc, planner, []domain.Translation{domain.TranslationKJV}, 3).
		RunBatch(context.Background(), Budget{})
	require.NoError(t, err)

	assert.Equal(t, 20, res.Processed)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}
