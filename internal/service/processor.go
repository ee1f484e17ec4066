package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meterflow/d0010-ingest/internal/config"
	"github.com/meterflow/d0010-ingest/internal/importer"
	"github.com/meterflow/d0010-ingest/internal/logging"
	"github.com/meterflow/d0010-ingest/internal/mq"
)

// ImportJob is the queue message asking the worker to import one flow file
// from a path reachable by the worker (shared volume or mount)
type ImportJob struct {
	RequestID string `json:"request_id"`
	Path      string `json:"path"`
	DryRun    bool   `json:"dry_run"`
}

// ProcessorService handles import job messages
type ProcessorService struct {
	importer  *importer.Importer
	publisher *mq.Publisher
	cfg       *config.Config
	logger    *zap.Logger
}

// NewProcessorService creates a new processor service
func NewProcessorService(
	imp *importer.Importer,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *ProcessorService {
	return &ProcessorService{
		importer:  imp,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// ProcessMessage processes one import job. A nil return acknowledges the
// message; an error sends it to the DLQ. A duplicate filename is
// acknowledged, not dead-lettered: redelivery of an already-imported file
// is expected and harmless.
func (s *ProcessorService) ProcessMessage(ctx context.Context, body []byte) error {
	var job ImportJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("failed to unmarshal import job: %w", err)
	}

	reqLogger := logging.WithRequestID(s.logger, job.RequestID)
	reqLogger.Info("processing import job",
		zap.String("path", job.Path),
		zap.Bool("dry_run", job.DryRun),
	)

	result, err := s.importer.ImportFile(ctx, job.Path, importer.Options{DryRun: job.DryRun})
	if err != nil {
		if errors.Is(err, importer.ErrDuplicateFile) {
			reqLogger.Warn("flow file already imported, acknowledging job",
				zap.String("path", job.Path))
			return nil
		}
		reqLogger.Error("failed to import flow file", zap.Error(err))
		return fmt.Errorf("failed to import flow file: %w", err)
	}

	// Publish only after a real commit
	if !job.DryRun {
		event := mq.FileImportedEvent{
			RequestID:          job.RequestID,
			FlowFileID:         result.FlowFile.ID.String(),
			Filename:           result.FlowFile.Filename,
			ImportedAt:         result.FlowFile.ImportedAt.Format(time.RFC3339),
			MeterPointsCreated: result.MeterPointsCreated,
			MetersCreated:      result.MetersCreated,
			ReadingsCreated:    result.ReadingsCreated,
			RecordsSkipped:     result.RecordsSkipped,
			ErrorCount:         len(result.Errors),
		}
		if err := s.publisher.PublishFileImported(ctx, event, s.cfg.RabbitMQ.EventsRoutingKey); err != nil {
			// Log error but don't fail the job, the import is committed
			reqLogger.Error("failed to publish file imported event",
				zap.Error(err),
				zap.String("filename", event.Filename),
			)
		}
	}

	reqLogger.Info("import job processed successfully",
		zap.String("filename", result.FlowFile.Filename),
		zap.Int("readings_created", result.ReadingsCreated),
		zap.Int("records_skipped", result.RecordsSkipped),
	)

	return nil
}
