// Package logger provides structured logging for the collaborative canvas
// engine, built on go.uber.org/zap. A global SugaredLogger is safe to use
// before Initialize (it starts as a no-op), and ComponentLogger gives each
// subsystem (pipeline, statesync, media, align) its own named child.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger instance.
	Logger *zap.SugaredLogger
	// JSONOutput tracks whether structured JSON output is active.
	JSONOutput bool
)

func init() {
	// No-op logger at package load so early use never panics.
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. JSON output is for machine
// consumption (e.g. piping engine diagnostics to a collector); console
// output is for local development and uses the minimal encoder below.
func Initialize(jsonOutput bool) error {
	JSONOutput = jsonOutput

	if theme := os.Getenv("CANVAS_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}

	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapLogger, err = config.Build()
	} else {
		zapLogger = zap.New(
			zapcore.NewCore(
				newMinimalEncoder(),
				zapcore.AddSync(os.Stdout),
				zap.InfoLevel,
			),
		)
	}
	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Cleanup flushes any buffered log entries. Sync errors on stdout/stderr
// (common on macOS/Linux for non-file descriptors) are not actionable and
// are returned only for completeness.
func Cleanup() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}

func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

func Infow(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, kv...)
	}
}

func Warn(args ...interface{}) {
	if Logger != nil {
		Logger.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

func Warnw(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, kv...)
	}
}

func Error(args ...interface{}) {
	if Logger != nil {
		Logger.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Errorf(format, args...)
	}
}

func Errorw(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, kv...)
	}
}

func Debug(args ...interface{}) {
	if Logger != nil {
		Logger.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

func Debugw(msg string, kv ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, kv...)
	}
}
