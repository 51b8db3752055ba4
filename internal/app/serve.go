package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/alansafahi/soapboxx-versesync/internal/transport/rest"
)

// Handler returns the ops HTTP handler.
func (a *App) Handler() http.Handler {
	return rest.NewRouter(a.log,
		rest.NewHealthHandler(a.store.repo, a.store.driver, BuildVersion()),
		rest.NewCoverageHandler(a.auditor, a.log),
	)
}

// Serve runs the ops HTTP server until ctx is done, then shuts it down
// gracefully within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	sc := a.cfg.Server
	srv := &http.Server{
		Addr:         net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port)),
		Handler:      a.Handler(),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.InfoContext(ctx, "ops server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sc.ShutdownTimeout)
	defer cancel()

	a.log.Info("ops server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	return nil
}
