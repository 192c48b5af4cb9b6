package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger shared by the portal and the
// worker. The default "pretty" format keeps local output readable; set
// PORTAL_LOG_FORMAT=json when lines are shipped to a collector.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("app", "portal-agile"))
}
