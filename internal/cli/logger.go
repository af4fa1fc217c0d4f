package cli

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// setupLogger writes to stderr so command output on stdout stays clean.
func setupLogger(level, env string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.WarnLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
