package logger

import "go.uber.org/zap"

// Domain symbols used to tag log lines by subsystem, queryable via the
// "symbol" field rather than parsed out of the message text.
const (
	Sync   = "⇌" // state sync: pending ops, ACK/reject, id remap, full sync
	Align  = "◈" // alignment engine: spring animation, grid/linear commit
	Upload = "⇡" // upload coordinator: hashing, retry, broadcast fanout
	Undo   = "↺" // undo manager: interaction grouping, merge, redo
)

// SyncInfow logs an info message tagged with the Sync symbol.
func SyncInfow(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, append([]interface{}{FieldSymbol, Sync}, kv...)...)
	}
}

// SyncWarnw logs a warning message tagged with the Sync symbol.
func SyncWarnw(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, append([]interface{}{FieldSymbol, Sync}, kv...)...)
	}
}

// UploadInfow logs an info message tagged with the Upload symbol.
func UploadInfow(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, append([]interface{}{FieldSymbol, Upload}, kv...)...)
	}
}

// UploadWarnw logs a warning message tagged with the Upload symbol.
func UploadWarnw(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, append([]interface{}{FieldSymbol, Upload}, kv...)...)
	}
}

// AlignDebugw logs a debug message tagged with the Align symbol.
func AlignDebugw(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, append([]interface{}{FieldSymbol, Align}, kv...)...)
	}
}

// UndoDebugw logs a debug message tagged with the Undo symbol.
func UndoDebugw(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, append([]interface{}{FieldSymbol, Undo}, kv...)...)
	}
}

// WithSymbol returns a logger with the given symbol pre-attached as a field.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}
