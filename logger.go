package batch2d

import (
	"log/slog"
	"sync/atomic"
)

// silent drops every record. Its handler reports every level disabled, so
// log calls on it cost no formatting.
var silent = slog.New(slog.DiscardHandler)

// pkgLogger holds the logger set by SetLogger; nil means silent.
var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger sets the logger that renderers created afterwards use unless
// they were given [WithLogger]. batch2d is silent until SetLogger is called
// and again after SetLogger(nil). It is safe to call while other
// goroutines draw.
//
// Records are tagged with renderer=rect, line or circle. Levels:
//   - [slog.LevelDebug]: renderer creation with its capacities, every flush
//   - [slog.LevelWarn]: problems while releasing resources
//   - [slog.LevelError]: failed implicit flushes
//
//	batch2d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

// Logger returns the logger new renderers default to. It never returns nil.
func Logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return silent
}
