package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger from config. With no log file configured the
// TUI runs with a no-op logger so log lines never tear the screen.
func NewLogger(cfg Config) (*zap.Logger, error) {
	if cfg.LogFile == "" {
		return zap.NewNop(), nil
	}
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg := zap.Config{
		Level:            level,
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{cfg.LogFile},
		ErrorOutputPaths: []string{cfg.LogFile},
	}
	return zapCfg.Build()
}
