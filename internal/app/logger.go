package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production always emits JSON so
// the ledger's audit-relevant warnings stay machine-parseable; development
// defaults to the text handler. Source locations are attached in both modes.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("app", "consorcia"))
}
