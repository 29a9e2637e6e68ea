package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger discards everything until InitLogger runs, which keeps tests quiet.
var logger = zap.NewNop()

// InitLogger initializes the global logger
func InitLogger(env string) error {
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
	case "test":
		logger = zap.NewNop()
		return nil
	default:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	built, err := config.Build()
	if err != nil {
		return err
	}

	logger = built
	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	_ = logger.Sync()
}
