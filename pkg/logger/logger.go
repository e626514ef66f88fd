// Package logger constructs the engine's zap.Logger, adapted from the
// host application's own logger.New: same production/development and
// json/console switching, minus the gin request-logging middleware (the
// engine has no HTTP transport of its own).
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eduscheduler/engine/pkg/config"
)

// New builds a zap.Logger from cfg.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// WithTask returns a child logger carrying the task's identifying
// fields: every log line emitted while a task runs is traceable back
// to it.
func WithTask(l *zap.Logger, taskID, academicYear, semester string) *zap.Logger {
	return l.With(
		zap.String("task_id", taskID),
		zap.String("academic_year", academicYear),
		zap.String("semester", semester),
	)
}
