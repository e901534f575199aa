package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init replaces the process logger. level is one of debug, info, warn, error.
func Init(level string, development bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	Set(l)
	return nil
}

// Set installs l as the process logger; tests use it with an observer core.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Sync() error {
	return L().Sync()
}

func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	L().Fatal(msg, fields...)
}
