// Package runlog configures the structured logger the driver, resolver,
// and CLI progress reporting use. Structured fields let a long match
// run be filtered by pass, chunk, or shard.
package runlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger at the given level ("debug", "info", "warn",
// "error"). format "console" favors local development readability;
// anything else (including "") produces structured JSON suitable for
// log aggregation.
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("runlog: parse level %q: %w", level, err)
	}
	cfg.Level.SetLevel(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("runlog: build logger: %w", err)
	}
	return logger, nil
}
