package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/alansafahi/soapboxx-versesync/migrations"
)

// Migration actions.
const (
	MigrateUp     = "up"
	MigrateStatus = "status"
)

// Migrate applies pending migrations or prints their status to w.
func (a *App) Migrate(ctx context.Context, action string, w io.Writer) error {
	provider, err := migrations.NewProvider(a.store.db, a.store.driver)
	if err != nil {
		return err
	}

	switch action {
	case MigrateUp:
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		for _, r := range results {
			a.log.InfoContext(ctx, "migration applied",
				slog.String("path", r.Source.Path),
				slog.Duration("duration", r.Duration),
			)
		}
		fmt.Fprintf(w, "%d migration(s) applied\n", len(results))
		return nil

	case MigrateStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown migrate action %q (want %s or %s)", action, MigrateUp, MigrateStatus)
	}
}
