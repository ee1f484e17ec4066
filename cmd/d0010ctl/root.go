package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meterflow/d0010-ingest/internal/anomaly"
	"github.com/meterflow/d0010-ingest/internal/config"
	"github.com/meterflow/d0010-ingest/internal/db"
	"github.com/meterflow/d0010-ingest/internal/importer"
	"github.com/meterflow/d0010-ingest/internal/logging"
	"github.com/meterflow/d0010-ingest/internal/repository"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "d0010ctl",
		Short:         "D0010 flow-file import tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newPurgeCmd())
	cmd.AddCommand(newInitDBCmd())
	return cmd
}

// env bundles the dependencies a one-shot command needs. Unlike the
// long-running binaries there is no fx lifecycle to manage; close() tears
// everything down.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *db.Pool
	repo   *repository.Repository
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger("d0010ctl")
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, logger, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		repo:   repository.NewRepository(pool),
	}, nil
}

func (e *env) newImporter() (*importer.Importer, error) {
	detector := anomaly.NewDetector(e.cfg.Anomaly.SpikeThreshold, e.cfg.Anomaly.MinDataPointsForDetection)
	return importer.New(e.repo, detector, e.cfg, e.logger)
}

func (e *env) close() {
	e.pool.Close()
	_ = e.logger.Sync()
}
