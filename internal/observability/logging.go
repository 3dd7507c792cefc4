// Package observability builds the zap loggers the binaries share.
package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a sugared logger for the given level: debug|info|warn|error.
// Production output is sampled JSON on stdout; development mode drops sampling
// and switches to a human-readable console encoding.
func NewLogger(level string, development bool) *zap.SugaredLogger {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:      development,
		Encoding:         "json",
		EncoderConfig:    encoderConfig(development),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
	}
	if development {
		cfg.Encoding = "console"
		// Sampling would silently drop lines from an interactive session.
		cfg.Sampling = nil
	}

	logger, err := cfg.Build()
	if err != nil {
		fallback, _ := zap.NewProduction()
		return fallback.Sugar()
	}
	return logger.Sugar()
}

// ParseLevel maps a level name to its zapcore level, tolerating the "warning"
// spelling. Unknown names fall back to info.
func ParseLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	if development {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

// EnvLogLevel returns the log level from LOG_LEVEL, or def when unset.
func EnvLogLevel(def string) string {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return v
	}
	return def
}
