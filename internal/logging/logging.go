package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv overrides the configured level when set.
const LevelEnv = "STREAMWATCH_LOG_LEVEL"

// New builds a JSON logger at level writing to path. An empty path or "-"
// means stderr. The dashboard logs to a file so it does not draw over the
// terminal.
func New(level, path string) (*zap.Logger, error) {
	if env := os.Getenv(LevelEnv); env != "" {
		level = env
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	if path == "" || path == "-" {
		cfg.OutputPaths = []string{"stderr"}
	} else {
		cfg.OutputPaths = []string{path}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// ParseLevel accepts zap level names, case insensitive.
func ParseLevel(level string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
