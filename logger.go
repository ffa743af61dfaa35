package textbehind

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger sets the logger shared by every package of the module. The
// default discards everything; nil restores it.
//
// Levels:
//   - Debug: render timings, stale cutouts, skipped drags and resizes
//   - Info: uploads and exports
//   - Warn: failed background removal, unparsable colours
//
// SetLogger may be called while other goroutines log.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}

// Logger returns the shared logger.
func Logger() *slog.Logger {
	return logger.Load()
}
