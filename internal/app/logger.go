package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alansafahi/soapboxx-versesync/internal/config"
)

// NewLogger builds the process logger on stderr and installs it as the slog
// default. Every record carries the app name and build version.
//
// cfg.Format "json" (default) suits unattended batch runs; "text" adds
// source locations for local debugging. Unknown levels fall back to info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(os.Stderr, cfg).With(
		slog.String("app", "versesync"),
		slog.String("version", Version),
	)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	text := strings.EqualFold(strings.TrimSpace(cfg.Format), "text")
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level), AddSource: text}
	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
