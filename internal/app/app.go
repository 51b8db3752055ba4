// Package app assembles the verse store, sources, importer and auditor
// from configuration, and exposes the operations the CLI runs.
package app

import (
	"context"
	"log/slog"

	"github.com/alansafahi/soapboxx-versesync/internal/app/importer"
	"github.com/alansafahi/soapboxx-versesync/internal/config"
	"github.com/alansafahi/soapboxx-versesync/internal/normalize"
	"github.com/alansafahi/soapboxx-versesync/internal/ratelimit"
	"github.com/alansafahi/soapboxx-versesync/internal/service/coverage"
)

// App is a fully wired pipeline over one verse store.
type App struct {
	cfg       *config.Config
	log       *slog.Logger
	store     *backend
	auditor   *coverage.Auditor
	scheduler *importer.Scheduler
}

// New opens the configured store and wires the pipeline. Close releases it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	imp := cfg.Import

	auditor := coverage.NewAuditor(logger, store.repo, coverage.Config{
		Translations: imp.Translations,
		RetryPartial: imp.RetryPartial,
	})

	gateway := importer.NewGateway(store.repo, store.txm, importer.GatewayConfig{
		BatchSize:    imp.BatchSizeRows,
		RecordStatus: !imp.StatusInMemory,
	})

	orchestrator := importer.NewOrchestrator(logger,
		buildSources(cfg.Sources, logger),
		ratelimit.NewRegistry(buildPolicies(cfg.Sources), logger),
		normalize.New(buildRules(cfg.Categories)),
		gateway,
		importer.OrchestratorConfig{
			MaxRetries:       imp.MaxRetries,
			PartialThreshold: imp.PartialThreshold,
			PersistTimeout:   imp.PersistTimeout,
			MaxTextLength:    imp.MaxTextLength,
		},
	)

	scheduler := importer.NewScheduler(logger, orchestrator, auditor, importer.SchedulerConfig{
		Translations: auditor.Translations(),
		MaxWorkers:   imp.MaxWorkers,
	})

	logger.InfoContext(ctx, "pipeline ready",
		slog.String("store", store.driver),
		slog.Any("sources", cfg.Sources.Order),
		slog.Int("translations", len(auditor.Translations())),
		slog.Int("max_workers", imp.MaxWorkers),
	)

	return &App{cfg: cfg, log: logger, store: store, auditor: auditor, scheduler: scheduler}, nil
}

// Close releases the store.
func (a *App) Close() {
	a.store.close()
}

// Auditor returns the coverage auditor.
func (a *App) Auditor() *coverage.Auditor { return a.auditor }

// RunBatch runs one batch. Zero budget fields fall back to the configured
// import.max_units and import.max_duration.
func (a *App) RunBatch(ctx context.Context, budget importer.Budget) (importer.BatchResult, error) {
	if budget.MaxUnits == 0 {
		budget.MaxUnits = a.cfg.Import.MaxUnits
	}
	if budget.MaxDuration == 0 {
		budget.MaxDuration = a.cfg.Import.MaxDuration
	}
	return a.scheduler.RunBatch(ctx, budget)
}

// Coverage builds the current coverage report.
func (a *App) Coverage(ctx context.Context) (coverage.Report, error) {
	return a.auditor.Report(ctx)
}
