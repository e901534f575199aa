package main

import (
	"login_gateway/internal/utils/log"

	"go.uber.org/zap"
)

func initFileLog(path string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	log.Set(l)
	return nil
}
