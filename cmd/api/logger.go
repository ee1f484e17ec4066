package main

import (
	"github.com/meterflow/d0010-ingest/internal/config"
	"github.com/meterflow/d0010-ingest/internal/logging"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
