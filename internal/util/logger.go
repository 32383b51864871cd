package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "course-service"

var logger *zap.Logger

// InitLogger initializes the global logger. Every entry carries the
// service name so aggregated logs stay attributable.
func InitLogger(env string) error {
	var err error
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.InitialFields = map[string]interface{}{"service": serviceName}

	logger, err = config.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		dev, _ := zap.NewDevelopment()
		logger = dev.With(zap.String("service", serviceName))
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
