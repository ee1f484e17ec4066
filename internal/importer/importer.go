// Package importer drives the D0010 import pipeline: it reads a flow file
// line by line, tokenizes and validates each record, tracks the 026/028/030
// hierarchy, and persists the resulting entities in one transaction per
// file with per-record error isolation.
package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meterflow/d0010-ingest/internal/anomaly"
	"github.com/meterflow/d0010-ingest/internal/config"
	"github.com/meterflow/d0010-ingest/internal/d0010"
	"github.com/meterflow/d0010-ingest/internal/db"
	"github.com/meterflow/d0010-ingest/internal/logging"
)

// Options controls a single import run
type Options struct {
	// DryRun rolls back all writes at the end of the file but still
	// returns the counts and errors a committing run would produce
	DryRun bool
}

// Importer imports D0010 flow files into the relational store
type Importer struct {
	store    Store
	detector *anomaly.Detector
	loc      *time.Location
	cfg      *config.Config
	logger   *zap.Logger
}

// New creates a new importer. The configured import timezone must resolve
// to a valid IANA location.
func New(store Store, detector *anomaly.Detector, cfg *config.Config, logger *zap.Logger) (*Importer, error) {
	loc, err := time.LoadLocation(cfg.Import.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load import timezone %q: %w", cfg.Import.Timezone, err)
	}

	return &Importer{
		store:    store,
		detector: detector,
		loc:      loc,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ImportFile opens the file at path and imports it under its base filename
func (i *Importer) ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		importsTotal.WithLabelValues(outcomeFailed).Inc()
		return nil, &StructuralError{Err: err}
	}
	defer f.Close()

	return i.Import(ctx, filepath.Base(path), f, opts)
}

// Import reads one flow file from r and persists it under filename.
// Recoverable per-record failures are collected into the result and never
// abort the run; duplicate filenames, unreadable streams and unexpected
// database errors are fatal and leave zero persisted rows.
func (i *Importer) Import(ctx context.Context, filename string, r io.Reader, opts Options) (*Result, error) {
	start := time.Now()

	tx, err := i.store.BeginImport(ctx)
	if err != nil {
		importsTotal.WithLabelValues(outcomeFailed).Inc()
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	importedAt := time.Now()

	// The flow-file row goes in before any parsing, so re-importing a known
	// filename is rejected without reading a single line
	file, err := tx.CreateFlowFile(ctx, filename, importedAt)
	if err != nil {
		if errors.Is(err, ErrDuplicateFile) {
			importsTotal.WithLabelValues(outcomeDuplicate).Inc()
		} else {
			importsTotal.WithLabelValues(outcomeFailed).Inc()
		}
		return nil, err
	}

	fileLogger := logging.WithFlowFile(i.logger, filename)
	result := &Result{FlowFile: file, DryRun: opts.DryRun}
	trk := &tracker{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), i.cfg.Import.MaxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, ok := d0010.ParseLine(scanner.Text())
		if !ok {
			continue
		}
		result.RecordCount++

		if err := i.processRecord(ctx, tx, trk, rec, lineNo, importedAt, result, fileLogger); err != nil {
			importsTotal.WithLabelValues(outcomeFailed).Inc()
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		importsTotal.WithLabelValues(outcomeFailed).Inc()
		return nil, &StructuralError{Err: err}
	}

	file.RecordCount = result.RecordCount
	file.ReadingCount = result.ReadingsCreated
	file.ErrorCount = len(result.Errors)
	if err := tx.UpdateFlowFileCounts(ctx, file.ID, file.RecordCount, file.ReadingCount, file.ErrorCount); err != nil {
		importsTotal.WithLabelValues(outcomeFailed).Inc()
		return nil, fmt.Errorf("failed to update flow file counts: %w", err)
	}

	if opts.DryRun {
		if err := tx.Rollback(ctx); err != nil {
			fileLogger.Warn("failed to roll back dry run", zap.Error(err))
		}
		importsTotal.WithLabelValues(outcomeDryRun).Inc()
	} else {
		if err := tx.Commit(ctx); err != nil {
			importsTotal.WithLabelValues(outcomeFailed).Inc()
			return nil, fmt.Errorf("failed to commit import: %w", err)
		}
		importsTotal.WithLabelValues(outcomeCommitted).Inc()
		readingsCreatedTotal.Add(float64(result.ReadingsCreated))
	}
	importDuration.Observe(time.Since(start).Seconds())

	fileLogger.Info("flow file imported",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("records", result.RecordCount),
		zap.Int("meter_points_created", result.MeterPointsCreated),
		zap.Int("meters_created", result.MetersCreated),
		zap.Int("readings_created", result.ReadingsCreated),
		zap.Int("records_skipped", result.RecordsSkipped),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// processRecord routes one tokenized record through the hierarchy tracker
// and validators. A returned error is fatal to the whole import; recoverable
// failures are recorded on the result and the record is skipped.
func (i *Importer) processRecord(
	ctx context.Context,
	tx Tx,
	trk *tracker,
	rec d0010.Record,
	lineNo int,
	importedAt time.Time,
	result *Result,
	logger *zap.Logger,
) error {
	switch rec.Type {
	case d0010.RecordHeader, d0010.RecordTrailer:
		// Classified for completeness, ignored beyond presence
		return nil

	case d0010.RecordMeterPoint:
		return i.processMeterPoint(ctx, tx, trk, rec, lineNo, result, logger)

	case d0010.RecordMeter:
		return i.processMeter(ctx, tx, trk, rec, lineNo, result, logger)

	case d0010.RecordReading:
		return i.processReading(ctx, tx, trk, rec, lineNo, importedAt, result, logger)

	default:
		i.skipRecord(result, lineNo, &d0010.ValidationError{
			Kind:    d0010.KindUnknownRecordType,
			Message: fmt.Sprintf("unrecognized record type %q", rec.Code),
		}, logger)
		return nil
	}
}

func (i *Importer) processMeterPoint(
	ctx context.Context,
	tx Tx,
	trk *tracker,
	rec d0010.Record,
	lineNo int,
	result *Result,
	logger *zap.Logger,
) error {
	mpan, verr := d0010.ValidateMPAN(rec.Field(0))
	if verr != nil {
		trk.clear()
		i.skipRecord(result, lineNo, verr, logger)
		return nil
	}

	meterPoint, created, err := tx.GetOrCreateMeterPoint(ctx, mpan)
	if err != nil {
		return fmt.Errorf("failed to resolve meter point %s: %w", mpan, err)
	}
	if created {
		result.MeterPointsCreated++
	}

	trk.setMeterPoint(meterPoint)
	return nil
}

func (i *Importer) processMeter(
	ctx context.Context,
	tx Tx,
	trk *tracker,
	rec d0010.Record,
	lineNo int,
	result *Result,
	logger *zap.Logger,
) error {
	if trk.meterPoint == nil {
		i.skipRecord(result, lineNo, &d0010.ValidationError{
			Kind:    d0010.KindOrphanMeter,
			Message: "meter record with no preceding meter point record",
		}, logger)
		return nil
	}

	serial, verr := d0010.ValidateSerial(rec.Field(0))
	if verr != nil {
		trk.clearMeter()
		i.skipRecord(result, lineNo, verr, logger)
		return nil
	}

	meterType := strings.TrimSpace(rec.Field(1))
	if warn := d0010.CheckMeterType(meterType); warn != nil {
		i.warnRecord(result, lineNo, warn, logger)
	}

	meter, created, err := tx.GetOrCreateMeter(ctx, trk.meterPoint.ID, serial, meterType)
	if err != nil {
		return fmt.Errorf("failed to resolve meter %s: %w", serial, err)
	}
	if created {
		result.MetersCreated++
	}

	trk.setMeter(meter)
	return nil
}

func (i *Importer) processReading(
	ctx context.Context,
	tx Tx,
	trk *tracker,
	rec d0010.Record,
	lineNo int,
	importedAt time.Time,
	result *Result,
	logger *zap.Logger,
) error {
	if trk.meter == nil {
		i.skipRecord(result, lineNo, &d0010.ValidationError{
			Kind:    d0010.KindOrphanReading,
			Message: "reading record with no preceding meter record",
		}, logger)
		return nil
	}

	registerID := strings.TrimSpace(rec.Field(0))

	value, verr := d0010.ValidateReadingValue(rec.Field(1))
	if verr != nil {
		i.skipRecord(result, lineNo, verr, logger)
		return nil
	}

	readingAt, verr := d0010.ValidateReadingTime(rec.Field(2), i.loc, importedAt)
	if verr != nil {
		i.skipRecord(result, lineNo, verr, logger)
		return nil
	}

	if warn := d0010.CheckRegisterID(registerID); warn != nil {
		i.warnRecord(result, lineNo, warn, logger)
	}

	readingType, warn := d0010.NormalizeReadingType(rec.Field(3))
	if warn != nil {
		i.warnRecord(result, lineNo, warn, logger)
	}

	// Anomaly flags annotate the reading, they never reject it
	var anomalyReason *string
	previous, err := tx.RecentReadingValues(ctx, trk.meter.ID, registerID, i.cfg.Anomaly.HistoryWindow)
	if err != nil {
		logger.Warn("failed to load reading history for anomaly check",
			zap.Error(err),
			zap.String("register_id", registerID),
		)
	} else if flagged, reason := i.detector.Check(value, previous); flagged {
		anomalyReason = &reason
		logger.Debug("anomalous reading flagged",
			zap.Int("line", lineNo),
			zap.String("register_id", registerID),
			zap.String("reason", reason),
		)
	}

	reading := &db.Reading{
		MeterID:       trk.meter.ID,
		FlowFileID:    result.FlowFile.ID,
		RegisterID:    registerID,
		Value:         value,
		ReadingAt:     readingAt,
		ReadingType:   readingType,
		AnomalyReason: anomalyReason,
	}

	if err := tx.InsertReading(ctx, reading); err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	result.ReadingsCreated++
	return nil
}

// skipRecord records a recoverable failure and drops the record
func (i *Importer) skipRecord(result *Result, lineNo int, verr *d0010.ValidationError, logger *zap.Logger) {
	result.RecordsSkipped++
	result.Errors = append(result.Errors, RecordError{
		Line:    lineNo,
		Kind:    verr.Kind,
		Message: verr.Message,
	})
	recordsSkippedTotal.WithLabelValues(string(verr.Kind)).Inc()

	logger.Warn("record skipped",
		zap.Int("line", lineNo),
		zap.String("kind", string(verr.Kind)),
		zap.String("reason", verr.Message),
	)
}

// warnRecord records a warning; the record is still imported
func (i *Importer) warnRecord(result *Result, lineNo int, verr *d0010.ValidationError, logger *zap.Logger) {
	result.Errors = append(result.Errors, RecordError{
		Line:    lineNo,
		Kind:    verr.Kind,
		Message: verr.Message,
	})

	logger.Warn("record flagged",
		zap.Int("line", lineNo),
		zap.String("kind", string(verr.Kind)),
		zap.String("reason", verr.Message),
	)
}
