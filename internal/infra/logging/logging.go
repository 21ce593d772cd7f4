package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"smm-reseller/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		// Keep first 100, then 1 every 100 thereafter.
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxTraceID ctxKey = "trace_id"
	ctxKeyID   ctxKey = "key_id"
	ctxOrderID ctxKey = "order_id"
)

// With folds request-scoped fields (trace_id, key_id, order_id) from ctx
// back into a child logger.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v := ctx.Value(ctxTraceID); v != nil {
		l = l.Str("trace_id", v.(string))
	}
	if v := ctx.Value(ctxKeyID); v != nil {
		l = l.Str("key_id", v.(string))
	}
	if v := ctx.Value(ctxOrderID); v != nil {
		l = l.Str("order_id", v.(string))
	}
	logger := l.Logger()
	return &logger
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}

func WithKeyID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyID, id)
}

func WithOrderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxOrderID, id)
}

// Redact hides key material outside dev; keeps a short preview so
// operators can still correlate with the admin panel.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}
