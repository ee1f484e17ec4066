package main

import (
	"context"

	"github.com/meterflow/d0010-ingest/internal/anomaly"
	"github.com/meterflow/d0010-ingest/internal/config"
	"github.com/meterflow/d0010-ingest/internal/db"
	"github.com/meterflow/d0010-ingest/internal/httpapi"
	"github.com/meterflow/d0010-ingest/internal/importer"
	"github.com/meterflow/d0010-ingest/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func startServer(lc fx.Lifecycle, server *httpapi.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
}

// ProvideRepository creates a new repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvideAnomalyDetector creates a new anomaly detector instance
func ProvideAnomalyDetector(cfg *config.Config) *anomaly.Detector {
	return anomaly.NewDetector(cfg.Anomaly.SpikeThreshold, cfg.Anomaly.MinDataPointsForDetection)
}

// ProvideImporter creates a new flow-file importer instance
func ProvideImporter(repo *repository.Repository, detector *anomaly.Detector, cfg *config.Config, logger *zap.Logger) (*importer.Importer, error) {
	return importer.New(repo, detector, cfg, logger)
}

// ProvideHTTPServer creates the REST API server
func ProvideHTTPServer(cfg *config.Config, repo *repository.Repository, imp *importer.Importer, logger *zap.Logger) *httpapi.Server {
	return httpapi.New(cfg, repo, imp, logger)
}

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL, cfg.Database.MaxConns)
}
