// Package logger builds the structured logger and carries it through requests.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
)

// New returns a JSON logger writing to stdout. Debug records are kept
// outside release mode.
func New(mode string) *slog.Logger {
	return NewWithWriter(os.Stdout, mode)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, mode string) *slog.Logger {
	level := slog.LevelDebug
	if mode == gin.ReleaseMode {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

type ctxKey struct{}

// With stores a logger in ctx.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets the logger stored in ctx, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
