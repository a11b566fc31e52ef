package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging across the engine. Use these
// constants instead of raw strings so grep/log-query stays consistent.
const (
	// Identity
	FieldNodeID   = "node_id"
	FieldOpID     = "op_id"
	FieldHash     = "hash"
	FieldActorID  = "actor_id"
	FieldSession  = "session_id"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldAxis      = "axis"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts
	FieldCount    = "count"
	FieldSent     = "sent"
	FieldReceived = "received"
	FieldRetry    = "retry"

	// Status
	FieldStatus = "status"

	// Domain marker
	FieldSymbol = "symbol"
)

type contextKey string

const (
	sessionIDKey contextKey = "logger_session_id"
	opIDKey      contextKey = "logger_op_id"
	componentKey contextKey = "logger_component"
)

// WithSessionID attaches a collaboration session id to the context for logging.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithOpID attaches an operation id to the context for logging.
func WithOpID(ctx context.Context, opID string) context.Context {
	return context.WithValue(ctx, opIDKey, opID)
}

// WithComponent attaches a component name to the context for logging.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context for use with
// Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		fields = append(fields, FieldSession, v)
	}
	if v, ok := ctx.Value(opIDKey).(string); ok && v != "" {
		fields = append(fields, FieldOpID, v)
	}
	if v, ok := ctx.Value(componentKey).(string); ok && v != "" {
		fields = append(fields, FieldComponent, v)
	}
	return fields
}

// ComponentLogger returns a named logger for a specific subsystem. Preferred
// over touching the global Logger directly so each component carries its
// own name in the "component" field.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
