package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type scopeKey struct{}

// scope is everything a request carries for logging. It is stored as one value and copied on
// every change, so a derived context never alters its parent.
type scope struct {
	logger    *slog.Logger
	traceID   string
	requestID string
}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeFrom(ctx)
	update(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return withScope(ctx, func(s *scope) { s.logger = logger })
}

// FromContext extracts a logger from the context, falling back to default if not found
func FromContext(ctx context.Context) *slog.Logger {
	if l := scopeFrom(ctx).logger; l != nil {
		return l
	}
	return slog.Default()
}

// With returns a context whose logger carries args on every record.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(args...))
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withScope(ctx, func(s *scope) { s.traceID = traceID })
}

func TraceIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).traceID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withScope(ctx, func(s *scope) { s.requestID = requestID })
}

func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// GenerateTraceID returns a time-ordered UUID (v7), or a random one if the clock source fails.
func GenerateTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewRequestLogger derives a logger tagged with the request and trace IDs held by ctx.
func NewRequestLogger(ctx context.Context, baseLogger *slog.Logger) *slog.Logger {
	s := scopeFrom(ctx)

	var args []any
	if s.requestID != "" {
		args = append(args, "request_id", s.requestID)
	}
	if s.traceID != "" {
		args = append(args, "trace_id", s.traceID)
	}
	return baseLogger.With(args...)
}
