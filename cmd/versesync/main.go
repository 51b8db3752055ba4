// Command versesync imports Bible translations from upstream sources into
// the verse store and reports on coverage.
//
// Configuration comes from config.yaml (or CONFIG_PATH), a .env file and
// the environment. Run "versesync --help" for the commands.
//
// Exit codes: 0 = success, 1 = configuration or store error.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/alansafahi/soapboxx-versesync/internal/app"
	"github.com/alansafahi/soapboxx-versesync/internal/app/importer"
	"github.com/alansafahi/soapboxx-versesync/internal/config"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/service/coverage"
)

// CLI defines the versesync command line.
var CLI struct {
	Config string `name:"config" short:"c" help:"Path to the YAML config file" type:"path"`

	RunBatch RunBatchCmd `cmd:"" name:"run-batch" help:"Import one batch of pending chapters"`
	Coverage CoverageCmd `cmd:"" help:"Print the coverage report"`
	Migrate  MigrateCmd  `cmd:"" help:"Apply or inspect store migrations"`
	Serve    ServeCmd    `cmd:"" help:"Start the ops HTTP server (health and coverage)"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// RunBatchCmd runs the batch scheduler once.
type RunBatchCmd struct {
	MaxUnits     int           `name:"max-units" help:"Stop after this many units (0 = config value)"`
	MaxDuration  time.Duration `name:"max-duration" help:"Stop starting units after this long (0 = config value)"`
	Translations string        `help:"Comma-separated translation codes, overriding import.translations"`
	JSON         bool          `name:"json" help:"Print the result as JSON"`
}

func (c *RunBatchCmd) Run(ctx context.Context) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	if c.Translations != "" {
		trs, err := domain.ParseTranslations(c.Translations)
		if err != nil {
			return err
		}
		cfg.Import.Translations = trs
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("starting versesync batch", slog.String("version", app.BuildVersion()))

	res, err := a.RunBatch(ctx, importer.Budget{MaxUnits: c.MaxUnits, MaxDuration: c.MaxDuration})
	if c.JSON {
		if encErr := printJSON(res); encErr != nil {
			return encErr
		}
	} else {
		printBatch(res)
	}
	// Only a store failure is fatal; gaps are picked up by the next run.
	return err
}

// CoverageCmd prints the coverage report.
type CoverageCmd struct {
	JSON bool `name:"json" help:"Print the report as JSON"`
}

func (c *CoverageCmd) Run(ctx context.Context) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.Coverage(ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(rep)
	}
	return printCoverage(rep)
}

// MigrateCmd applies or lists migrations.
type MigrateCmd struct {
	Action string `arg:"" optional:"" enum:"up,status" default:"up" help:"up or status"`
}

func (c *MigrateCmd) Run(ctx context.Context) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Migrate(ctx, c.Action, os.Stdout)
}

// ServeCmd runs the ops HTTP server until interrupted.
type ServeCmd struct{}

func (c *ServeCmd) Run(ctx context.Context) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("starting versesync ops server", slog.String("version", app.BuildVersion()))
	return a.Serve(ctx)
}

// VersionCmd prints build information.
type VersionCmd struct {
	JSON bool `name:"json" help:"Print as JSON"`
}

func (c *VersionCmd) Run() error {
	if c.JSON {
		return printJSON(app.CurrentVersion())
	}
	fmt.Printf("versesync %s\n", app.BuildVersion())
	return nil
}

func load() (*config.Config, *slog.Logger, error) {
	if CLI.Config != "" {
		if err := os.Setenv("CONFIG_PATH", CLI.Config); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg.Log), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBatch(res importer.BatchResult) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", res.RunID)
	fmt.Fprintf(tw, "stop reason\t%s\n", res.StopReason)
	fmt.Fprintf(tw, "planned\t%d\n", res.Planned)
	fmt.Fprintf(tw, "processed\t%d (persisted %d, partial %d, gapped %d, skipped %d, canceled %d)\n",
		res.Processed, res.Persisted, res.Partial, res.Gapped, res.Skipped, res.Canceled)
	fmt.Fprintf(tw, "verses\t%d inserted, %d already present\n", res.Inserted, res.Conflicted)
	fmt.Fprintf(tw, "full coverage\t%.2f%%\n", res.CoveragePercent)
	fmt.Fprintf(tw, "duration\t%s\n", res.Duration.Round(time.Millisecond))
	for _, g := range res.Gaps {
		fmt.Fprintf(tw, "gap\t%s %s %d\n", g.Translation, g.Book, g.Chapter)
	}
	_ = tw.Flush()
}

func printCoverage(rep coverage.Report) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRANSLATION\tIMPORTED\tEXPECTED\tRATIO\tPENDING\tPARTIAL\tGAPPED\tSHORT")
	for _, t := range rep.Translations {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%d\t%d\t%d\t%d\n",
			t.Translation, t.Imported, t.Expected, t.Ratio*100, t.PendingUnits, t.PartialUnits, t.GappedUnits, t.ShortUnits)
	}
	fmt.Fprintf(tw, "\nfull coverage\t%.2f%%\n", rep.FullCoverageRatio*100)
	fmt.Fprintf(tw, "complete\t%t\n", rep.Complete)
	return tw.Flush()
}

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx := kong.Parse(&CLI,
		kong.Name("versesync"),
		kong.Description("Multi-source Bible translation importer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(sigCtx, (*context.Context)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
