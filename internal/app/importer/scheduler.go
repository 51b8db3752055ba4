package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/pkg/ctxutil"
)

// Reasons a batch stopped dequeuing.
const (
	StopCompleted        = "completed"
	StopUnitBudget       = "unit_budget"
	StopDurationBudget   = "duration_budget"
	StopCanceled         = "canceled"
	StopStoreUnavailable = "store_unavailable"
)

// DefaultMaxWorkers is the worker pool size when none is configured.
const DefaultMaxWorkers = 4

// Budget bounds one batch. Zero values mean unbounded.
type Budget struct {
	MaxUnits    int
	MaxDuration time.Duration
}

// SchedulerConfig holds batch-wide parameters.
type SchedulerConfig struct {
	Translations []domain.Translation
	MaxWorkers   int
	// CoverageTimeout bounds the closing coverage query.
	CoverageTimeout time.Duration
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	RunID           string            `json:"run_id"`
	Planned         int               `json:"planned"`
	Processed       int               `json:"processed"`
	Persisted       int               `json:"persisted"`
	Partial         int               `json:"partial"`
	Gapped          int               `json:"gapped"`
	Skipped         int               `json:"skipped"`
	Canceled        int               `json:"canceled"`
	Failed          int               `json:"failed"`
	Inserted        int               `json:"inserted"`
	Conflicted      int               `json:"conflicted"`
	CoveragePercent float64           `json:"coverage_percent"`
	Gaps            []domain.WorkUnit `json:"gaps"`
	StopReason      string            `json:"stop_reason"`
	Duration        time.Duration     `json:"duration"`
}

// Scheduler runs batches of pending units through a bounded worker pool.
type Scheduler struct {
	log     *slog.Logger
	proc    Processor
	planner Planner
	cfg     SchedulerConfig
}

// NewScheduler creates a Scheduler.
func NewScheduler(log *slog.Logger, proc Processor, planner Planner, cfg SchedulerConfig) *Scheduler {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.CoverageTimeout <= 0 {
		cfg.CoverageTimeout = time.Minute
	}
	return &Scheduler{
		log:     log.With("component", "scheduler"),
		proc:    proc,
		planner: planner,
		cfg:     cfg,
	}
}

// RunBatch processes pending units until they run out, the budget is spent,
// ctx is canceled, or the store fails. Units already fetched finish
// persisting. The returned error is non-nil only for store failures; the
// result is filled in either case.
func (s *Scheduler) RunBatch(ctx context.Context, budget Budget) (BatchResult, error) {
	start := time.Now()
	runID := uuid.New()
	ctx = ctxutil.WithRunID(ctx, runID)
	log := s.log.With("run_id", runID.String())

	res := BatchResult{RunID: runID.String()}
	attempts := NewAttemptLog()

	units, err := s.pending(ctx)
	if err != nil {
		res.Duration = time.Since(start)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.StopReason = StopCanceled
			return res, nil
		}
		res.StopReason = StopStoreUnavailable
		return res, storeError("plan batch", err)
	}

	truncated := false
	if budget.MaxUnits > 0 && len(units) > budget.MaxUnits {
		units = units[:budget.MaxUnits]
		truncated = true
	}
	res.Planned = len(units)

	log.InfoContext(ctx, "batch started",
		slog.Int("units", len(units)),
		slog.Int("workers", s.cfg.MaxWorkers),
		slog.Duration("max_duration", budget.MaxDuration),
	)

	var deadline <-chan time.Time
	if budget.MaxDuration > 0 {
		timer := time.NewTimer(budget.MaxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	g, gctx := errgroup.WithContext(ctx)
	work := make(chan domain.WorkUnit)

	stopReason := StopCompleted
	if truncated {
		stopReason = StopUnitBudget
	}

	// Only the producer writes stopReason; g.Wait orders the read below.
	g.Go(func() error {
		defer close(work)
		for _, u := range units {
			select {
			case <-deadline:
				stopReason = StopDurationBudget
				return nil
			default:
			}

			select {
			case <-gctx.Done():
				stopReason = StopCanceled
				return nil
			case <-deadline:
				stopReason = StopDurationBudget
				return nil
			case work <- u:
			}
		}
		return nil
	})

	for range s.cfg.MaxWorkers {
		g.Go(func() error {
			for u := range work {
				out := s.proc.Process(gctx, u)
				attempts.Record(out)
				logOutcome(gctx, log, out)
				if out.Err != nil {
					return fmt.Errorf("unit %s: %w", u, out.Err)
				}
			}
			return nil
		})
	}

	runErr := g.Wait()
	if runErr != nil {
		stopReason = StopStoreUnavailable
	}
	res.StopReason = stopReason

	for _, out := range attempts.Outcomes() {
		switch out.Status {
		case StatusPersisted:
			res.Persisted++
		case StatusPartial:
			res.Partial++
		case StatusGapped:
			res.Gapped++
		case StatusSkipped:
			res.Skipped++
		case StatusCanceled:
			res.Canceled++
		case StatusFailed:
			res.Failed++
		}
		res.Inserted += out.Inserted
		res.Conflicted += out.Conflicted
	}
	res.Processed = res.Persisted + res.Partial + res.Gapped + res.Skipped
	res.Gaps = attempts.Gaps()

	if runErr == nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CoverageTimeout)
		ratio, err := s.planner.FullCoverageRatio(cctx)
		cancel()
		if err != nil {
			log.WarnContext(ctx, "coverage unavailable", slog.String("error", err.Error()))
		} else {
			res.CoveragePercent = ratio * 100
		}
	}

	res.Duration = time.Since(start)
	log.InfoContext(ctx, "batch finished",
		slog.String("stop_reason", res.StopReason),
		slog.Int("processed", res.Processed),
		slog.Int("persisted", res.Persisted),
		slog.Int("partial", res.Partial),
		slog.Int("gapped", res.Gapped),
		slog.Int("inserted", res.Inserted),
		slog.Int("conflicted", res.Conflicted),
		slog.Float64("coverage_percent", res.CoveragePercent),
		slog.Duration("duration", res.Duration),
	)

	return res, runErr
}

func (s *Scheduler) pending(ctx context.Context) ([]domain.WorkUnit, error) {
	var units []domain.WorkUnit
	for _, tr := range s.cfg.Translations {
		p, err := s.planner.PendingWorkUnits(ctx, tr)
		if err != nil {
			return nil, fmt.Errorf("pending units %s: %w", tr, err)
		}
		units = append(units, p...)
	}
	return units, nil
}

func logOutcome(ctx context.Context, log *slog.Logger, out Outcome) {
	attrs := []any{
		slog.String("unit", out.Unit.String()),
		slog.String("status", string(out.Status)),
		slog.Duration("duration", out.Duration),
	}
	switch out.Status {
	case StatusPersisted, StatusPartial:
		attrs = append(attrs,
			slog.String("source", out.Source),
			slog.Int("accepted", out.Accepted),
			slog.Int("inserted", out.Inserted),
			slog.Int("conflicted", out.Conflicted),
		)
		log.InfoContext(ctx, "unit done", attrs...)
	case StatusGapped:
		log.WarnContext(ctx, "unit done", append(attrs, slog.String("errors", out.ErrorSummary()))...)
	case StatusFailed:
		log.ErrorContext(ctx, "unit done", append(attrs, slog.String("error", out.Err.Error()))...)
	default:
		log.DebugContext(ctx, "unit done", attrs...)
	}
}
