package glimm

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/halgpu"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for glimm and its internal packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by glimm:
//   - [slog.LevelDebug]: per-frame detail (pipeline compiles, mid-frame
//     submits, legacy API errors)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, backend ready)
//   - [slog.LevelWarn]: fallbacks (null device, slow fences)
//
// Example:
//
//	glimm.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
	halgpu.SetLogger(l)
}

// Logger returns the current logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
