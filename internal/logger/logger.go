// Package logger builds zap loggers and carries them through contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger for the given environment.
// prod writes JSON, local/dev/docker write console output. A non-empty level
// (debug, info, warn, error) overrides the environment default.
func NewLogger(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if err := setLevel(&cfg, level); err != nil {
		return nil, err
	}
	return build(cfg)
}

// NewCLILogger creates a console logger on stderr, keeping stdout free for
// run output. verbose lowers the level to debug.
func NewCLILogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.CallerKey = ""

	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := setLevel(&cfg, level); err != nil {
		return nil, err
	}
	return build(cfg)
}

func setLevel(cfg *zap.Config, level string) error {
	if level == "" {
		return nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(l)
	return nil
}

func build(cfg zap.Config) (*zap.Logger, error) {
	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
