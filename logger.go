package drape

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/drape/gpu"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for drape and all its sub-packages.
// By default, drape produces no log output. Pass nil to restore silence.
//
// Renderers capture the logger when they are created, so call SetLogger
// before NewRenderer.
//
// Log levels used by drape:
//   - [slog.LevelDebug]: per-frame diagnostics (batch sizes, skipped tiles, evictions)
//   - [slog.LevelInfo]: lifecycle events (device and program created)
//   - [slog.LevelWarn]: transient resource failures (bind failures, incomplete framebuffers)
//
// Example:
//
//	drape.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the current logger used by drape.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements
// loggerSetter.
func propagateLogger(dev gpu.Device, l *slog.Logger) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
