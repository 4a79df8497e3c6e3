// Package observability provides the CLI logger.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger for command output. It is
// initialized by InitCLILogger from root command setup; before that it is
// a no-op logger so library code can log unconditionally.
var CLILogger = zap.NewNop()

// InitCLILogger configures the CLI logger.
//
// level is a zap level name ("debug", "info", "warn", "error");
// unrecognized values fall back to info. jsonFormat switches from the
// human console encoder to structured JSON lines.
func InitCLILogger(level string, jsonFormat bool) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	if jsonFormat {
		cfg.Encoding = "json"
	} else {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		cfg.EncoderConfig.TimeKey = "" // conversational CLI output, no timestamps
	}

	logger, err := cfg.Build()
	if err != nil {
		return // keep the no-op logger rather than failing startup
	}
	CLILogger = logger
}

// Sync flushes any buffered log entries. Called on process exit.
func Sync() {
	_ = CLILogger.Sync()
}
