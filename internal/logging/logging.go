// Package logging builds the zap logger shared by all commands.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
}

// New constructs a zap logger. Format is "console" (default) or "json";
// output goes to stderr unless OutputPaths is set.
func New(opts Options) (*zap.Logger, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var enc zapcore.EncoderConfig
	switch format {
	case "json":
		enc = zap.NewProductionEncoderConfig()
	case "console":
		enc = zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		enc.CallerKey = ""
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(opts.Level)),
		Encoding:          format,
		EncoderConfig:     enc,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
