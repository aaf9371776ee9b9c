package cmd

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/apkscope/apkscope/pkg/apk"
)

// newLogger builds the CLI's zap logger. Quiet by default: only warnings
// reach the terminal unless --verbose is set.
func newLogger() *zap.SugaredLogger {
	level := zapcore.WarnLevel
	if cfg != nil && cfg.Output.Verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func chainLogger() apk.Logger {
	return apk.ZapLogger(newLogger())
}
