// Package observability provides the gateway's structured logger and
// metrics collector. Grounded on the teacher's internal/observability
// package, whose Logger/Metrics interfaces were left as TODO stubs; both
// are fully implemented here.
package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/reqctx"
)

// Field is a structured log field, aliasing zap's to keep call sites
// library-agnostic in signature only (the teacher does the same aliasing
// in its observability.Logger).
type Field = zap.Field

// Logger provides context-aware structured logging: every call attaches
// the request ID found on ctx, if any.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

type zapLogger struct {
	base *zap.Logger
}

// NewLogger builds a Logger backed by a zap.Logger. base must not be nil;
// pass zap.NewNop() in tests.
func NewLogger(base *zap.Logger) Logger {
	return &zapLogger{base: base}
}

func (l *zapLogger) withRequestID(ctx context.Context, fields []Field) []Field {
	if id := reqctx.RequestID(ctx); id != "" {
		return append(fields, zap.String("request_id", id))
	}
	return fields
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.base.Debug(msg, l.withRequestID(ctx, fields)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.base.Info(msg, l.withRequestID(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.base.Warn(msg, l.withRequestID(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.base.Error(msg, l.withRequestID(ctx, fields)...)
}

// NewZapLogger builds the process-wide *zap.Logger from a level string
// (LOG_LEVEL env var), matching the teacher's config-driven zap
// construction.
func NewZapLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
