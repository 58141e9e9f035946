// Package logging builds the zap logger shared by rxl commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger's verbosity and encoding.
type Config struct {
	Verbose bool     // debug level instead of info
	Human   bool     // console encoding instead of JSON
	Outputs []string // zap sink URLs; stderr when empty
}

// New builds a logger that writes to stderr so that stdout stays free for
// command output.
func New(verbose, human bool) (*zap.Logger, error) {
	return Build(Config{Verbose: verbose, Human: human})
}

// Build builds a logger from cfg.
func Build(cfg Config) (*zap.Logger, error) {
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = []string{"stderr"}
	}

	level := zapcore.InfoLevel
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encoding := "json"
	if cfg.Human {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          encoding,
		EncoderConfig:     encCfg,
		OutputPaths:       cfg.Outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Verbose,
	}

	z, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return z, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
