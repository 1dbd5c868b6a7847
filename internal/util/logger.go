package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger defaults to a nop logger so concurrent callers never observe a nil
// or half-initialized value; InitLogger swaps in the real one during startup,
// before any request or worker goroutine runs.
var logger = zap.NewNop()

// InitLogger initializes the global logger
func InitLogger(env string) error {
	var err error
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err = config.Build()
	if err != nil {
		return err
	}

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
