// Package logger provides the service-wide structured logger built on log/slog.
//
// Handlers get a request-scoped logger through WithCtx, which carries the
// request id injected by the HTTP layer:
//
//	log := logger.WithCtx(c.UserContext())
//	log.Info("variant adjusted", "sku", v.SKU, "new_count", v.InventoryCount)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// L is the base logger. Setup replaces it; until then it writes text to stdout.
var L = slog.New(slog.NewTextHandler(os.Stdout, nil))

type ctxKey struct{}

// Setup configures L: JSON at INFO for production, text at DEBUG otherwise.
func Setup(production bool) *slog.Logger {
	return SetupWriter(os.Stdout, production)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, production bool) *slog.Logger {
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	L = slog.New(handler)
	slog.SetDefault(L)
	return L
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithCtx returns the logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// Inject stores log in ctx for WithCtx to find.
func Inject(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}
