package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	runKey
)

// RunScope identifies the preparation run a context belongs to
type RunScope struct {
	RunID   string
	Dataset string
}

// WithTraceID returns ctx carrying traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID of ctx, or "" if none
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// GenerateTraceID returns a new random trace ID
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID returns ctx unchanged if it has a trace ID and with a new one otherwise
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, GenerateTraceID())
}

// WithRun scopes ctx to a preparation run. Records logged with the context
// carry run_id and dataset.
func WithRun(ctx context.Context, scope RunScope) context.Context {
	return context.WithValue(ctx, runKey, scope)
}

// RunFromContext returns the run scope of ctx
func RunFromContext(ctx context.Context) (RunScope, bool) {
	if ctx == nil {
		return RunScope{}, false
	}
	scope, ok := ctx.Value(runKey).(RunScope)
	return scope, ok
}

// WithComponent returns logger tagged with component. A nil logger uses the global one.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With("component", component)
}

// contextHandler adds trace and run attributes found in the record's context
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if scope, ok := RunFromContext(ctx); ok {
		r.AddAttrs(slog.String("run_id", scope.RunID), slog.String("dataset", scope.Dataset))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
