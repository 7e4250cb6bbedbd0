package screenfx

import (
	"log/slog"

	"github.com/gogpu/screenfx/internal/logging"
)

// SetLogger configures the logger for screenfx and all its sub-packages.
// By default, screenfx produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by screenfx:
//   - [slog.LevelDebug]: pipeline creation, buffer uploads, skipped frames
//   - [slog.LevelInfo]: lifecycle events (compositor ready, mode changes)
//   - [slog.LevelWarn]: an effect disabled because it failed to build
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	screenfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by screenfx.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
