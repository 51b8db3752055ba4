package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/provider"
	"github.com/alansafahi/soapboxx-versesync/pkg/ctxutil"
)

// OrchestratorConfig holds per-unit processing parameters.
type OrchestratorConfig struct {
	MaxRetries       int
	PartialThreshold float64
	PersistTimeout   time.Duration
	MaxTextLength    int
}

// Orchestrator walks the source chain for a unit, normalizes and validates
// what comes back, and persists it through the Gateway.
type Orchestrator struct {
	log     *slog.Logger
	sources []Source
	pacer   Pacer
	norm    Normalizer
	gateway *Gateway
	cfg     OrchestratorConfig
}

// NewOrchestrator creates an Orchestrator. sources are consulted in order.
func NewOrchestrator(log *slog.Logger, sources []Source, pacer Pacer, norm Normalizer, gateway *Gateway, cfg OrchestratorConfig) *Orchestrator {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Orchestrator{
		log:     log.With("component", "orchestrator"),
		sources: sources,
		pacer:   pacer,
		norm:    norm,
		gateway: gateway,
		cfg:     cfg,
	}
}

// Process fetches, normalizes and persists one unit. It never panics on
// source failures; the returned Outcome carries the status, and Outcome.Err
// is set only when the store failed.
func (o *Orchestrator) Process(ctx context.Context, unit domain.WorkUnit) (out Outcome) {
	start := time.Now()
	out.Unit = unit
	defer func() { out.Duration = time.Since(start) }()

	expected := unit.ExpectedVerses()
	if expected == 0 || !unit.Translation.IsValid() {
		out.Status = StatusSkipped
		return out
	}

	log := o.log.With("unit", unit.String())

	for _, src := range o.sources {
		raw, err := o.fetch(ctx, src, unit)
		if err != nil {
			if ctx.Err() != nil {
				out.Status = StatusCanceled
				return out
			}
			if errors.Is(err, provider.ErrUnsupported) {
				continue
			}
			log.DebugContext(ctx, "source failed", slog.String("source", src.ID()), slog.String("error", err.Error()))
			out.Errors = append(out.Errors, SourceError{Source: src.ID(), Err: err})
			continue
		}

		recs, rejected := o.accept(unit, src.ID(), raw)
		if len(recs) == 0 {
			log.WarnContext(ctx, "source returned nothing usable",
				slog.String("source", src.ID()), slog.Int("returned", len(raw)))
			out.Errors = append(out.Errors, SourceError{Source: src.ID(), Err: ErrNothingAccepted})
			continue
		}

		out.Source = src.ID()
		out.Returned = len(raw)
		out.Accepted = len(recs)
		out.Rejected = rejected
		out.Status = StatusPersisted
		if float64(len(recs)) < o.cfg.PartialThreshold*float64(expected) || len(raw) > 2*expected {
			out.Status = StatusPartial
		}

		o.persist(ctx, &out, recs)
		return out
	}

	if ctx.Err() != nil {
		out.Status = StatusCanceled
		return out
	}

	out.Status = StatusGapped
	log.WarnContext(ctx, "unit gapped", slog.String("errors", out.ErrorSummary()))

	pctx, cancel := o.persistContext(ctx)
	defer cancel()
	if err := o.gateway.RecordAttempt(pctx, o.attempt(ctx, out)); err != nil {
		out.Status = StatusFailed
		out.Err = err
	}
	return out
}

// fetch calls one source with pacing and bounded retries on transient errors.
func (o *Orchestrator) fetch(ctx context.Context, src Source, unit domain.WorkUnit) ([]provider.RawVerse, error) {
	if !src.Supports(unit.Translation) {
		return nil, provider.ErrUnsupported
	}

	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if err := o.pacer.Acquire(ctx, src.ID()); err != nil {
			return nil, err
		}

		raw, err := src.Fetch(ctx, unit.Translation, unit.Book, unit.Chapter)
		if err == nil {
			o.pacer.ReportSuccess(src.ID())
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil || !provider.IsRetryable(err) {
			return nil, err
		}
		o.pacer.ReportThrottled(ctx, src.ID(), provider.RetryAfterHint(err))
		o.log.DebugContext(ctx, "retrying",
			slog.String("unit", unit.String()),
			slog.String("source", src.ID()),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", o.cfg.MaxRetries+1, lastErr)
}

// accept normalizes and validates raw verses. Duplicated verse numbers keep
// the first valid occurrence.
func (o *Orchestrator) accept(unit domain.WorkUnit, source string, raw []provider.RawVerse) ([]domain.VerseRecord, int) {
	recs := make([]domain.VerseRecord, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	rejected := 0

	for _, rv := range raw {
		if seen[rv.Number] {
			rejected++
			continue
		}
		text, cat := o.norm.Normalize(rv.Text)
		rec := domain.NewVerseRecord(unit.Translation, unit.Book, unit.Chapter, rv.Number, text, cat, source)
		if err := rec.Validate(o.cfg.MaxTextLength); err != nil {
			rejected++
			continue
		}
		seen[rv.Number] = true
		recs = append(recs, rec)
	}
	return recs, rejected
}

// persist writes a fetched unit. It runs detached from run cancellation so
// a unit that was fetched is always written, bounded by PersistTimeout.
func (o *Orchestrator) persist(ctx context.Context, out *Outcome, recs []domain.VerseRecord) {
	pctx, cancel := o.persistContext(ctx)
	defer cancel()

	inserted, conflicted, err := o.gateway.PersistUnit(pctx, recs, o.attempt(ctx, *out))
	if err != nil {
		o.log.ErrorContext(ctx, "persist failed", slog.String("unit", out.Unit.String()), slog.String("error", err.Error()))
		out.Status = StatusFailed
		out.Err = err
		return
	}
	out.Inserted = inserted
	out.Conflicted = conflicted
}

func (o *Orchestrator) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.cfg.PersistTimeout)
}

func (o *Orchestrator) attempt(ctx context.Context, out Outcome) domain.UnitAttempt {
	return domain.UnitAttempt{
		Unit:        out.Unit,
		Status:      domain.UnitStatus(out.Status),
		Source:      out.Source,
		Returned:    out.Returned,
		Accepted:    out.Accepted,
		Error:       out.ErrorSummary(),
		RunID:       ctxutil.RunIDString(ctx),
		AttemptedAt: time.Now().UTC(),
	}
}
