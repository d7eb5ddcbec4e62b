package native

import (
	"log/slog"
	"sync/atomic"
)

var (
	silent    = slog.New(slog.DiscardHandler)
	pkgLogger atomic.Pointer[slog.Logger]
)

// SetLogger configures the logger used by devices created after the call.
// Pass nil to restore the silent default.
//
// The backend logs device creation, host memory fallbacks for staging
// buffers, ignored line widths and every submission index at
// [slog.LevelDebug], and failed unmaps at [slog.LevelWarn].
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

// Logger returns the current package logger. It never returns nil.
func Logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return silent
}
