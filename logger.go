package viewmux

import (
	"log/slog"

	"github.com/gogpu/viewmux/internal/logx"
)

// SetLogger configures the logger for viewmux and all its sub-packages.
// By default, viewmux produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by viewmux:
//   - [slog.LevelDebug]: scheduling diagnostics (passes, relayout sizes)
//   - [slog.LevelInfo]: lifecycle events (engine created or destroyed)
//   - [slog.LevelWarn]: non-fatal issues (viewport too small to draw, task panicked)
//
// Example:
//
//	viewmux.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logx.Set(l)
}

// Logger returns the current logger used by viewmux.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logx.Logger()
}
