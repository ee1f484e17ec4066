package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meterflow/d0010-ingest/internal/db"
	"github.com/meterflow/d0010-ingest/internal/importer"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// Repository handles database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BeginImport starts the transactional unit of work for one flow-file import
func (r *Repository) BeginImport(ctx context.Context) (importer.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &importTx{tx: tx}, nil
}

// importTx implements importer.Tx over a single pgx transaction
type importTx struct {
	tx pgx.Tx
}

// CreateFlowFile inserts the flow-file row; a unique violation on filename
// surfaces as importer.ErrDuplicateFile
func (t *importTx) CreateFlowFile(ctx context.Context, filename string, importedAt time.Time) (*db.FlowFile, error) {
	query := `
		INSERT INTO flow_files (filename, imported_at)
		VALUES ($1, $2)
		RETURNING id, filename, imported_at, record_count, reading_count, error_count
	`

	var file db.FlowFile
	err := t.tx.QueryRow(ctx, query, filename, importedAt).Scan(
		&file.ID,
		&file.Filename,
		&file.ImportedAt,
		&file.RecordCount,
		&file.ReadingCount,
		&file.ErrorCount,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("flow file %q: %w", filename, importer.ErrDuplicateFile)
		}
		return nil, fmt.Errorf("failed to create flow file: %w", err)
	}

	return &file, nil
}

// GetOrCreateMeterPoint resolves a meter point by MPAN. Creation is
// optimistic: ON CONFLICT DO NOTHING followed by a re-select, so a losing
// concurrent creator picks up the winner's row instead of failing.
func (t *importTx) GetOrCreateMeterPoint(ctx context.Context, mpan string) (*db.MeterPoint, bool, error) {
	insertQuery := `
		INSERT INTO meter_points (mpan)
		VALUES ($1)
		ON CONFLICT (mpan) DO NOTHING
		RETURNING id, mpan, created_at
	`

	var meterPoint db.MeterPoint
	err := t.tx.QueryRow(ctx, insertQuery, mpan).Scan(
		&meterPoint.ID,
		&meterPoint.MPAN,
		&meterPoint.CreatedAt,
	)
	if err == nil {
		return &meterPoint, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create meter point: %w", err)
	}

	// Conflict, the meter point already exists
	selectQuery := `
		SELECT id, mpan, created_at
		FROM meter_points
		WHERE mpan = $1
	`

	err = t.tx.QueryRow(ctx, selectQuery, mpan).Scan(
		&meterPoint.ID,
		&meterPoint.MPAN,
		&meterPoint.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query meter point: %w", err)
	}

	return &meterPoint, false, nil
}

// GetOrCreateMeter resolves a meter by (meter point, serial number), with
// the same optimistic create as GetOrCreateMeterPoint
func (t *importTx) GetOrCreateMeter(ctx context.Context, meterPointID uuid.UUID, serial, meterType string) (*db.Meter, bool, error) {
	insertQuery := `
		INSERT INTO meters (meter_point_id, serial_number, meter_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (meter_point_id, serial_number) DO NOTHING
		RETURNING id, meter_point_id, serial_number, meter_type, created_at
	`

	var meter db.Meter
	err := t.tx.QueryRow(ctx, insertQuery, meterPointID, serial, meterType).Scan(
		&meter.ID,
		&meter.MeterPointID,
		&meter.SerialNumber,
		&meter.MeterType,
		&meter.CreatedAt,
	)
	if err == nil {
		return &meter, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create meter: %w", err)
	}

	selectQuery := `
		SELECT id, meter_point_id, serial_number, meter_type, created_at
		FROM meters
		WHERE meter_point_id = $1 AND serial_number = $2
	`

	err = t.tx.QueryRow(ctx, selectQuery, meterPointID, serial).Scan(
		&meter.ID,
		&meter.MeterPointID,
		&meter.SerialNumber,
		&meter.MeterType,
		&meter.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query meter: %w", err)
	}

	return &meter, false, nil
}

// InsertReading persists one register reading
func (t *importTx) InsertReading(ctx context.Context, reading *db.Reading) error {
	query := `
		INSERT INTO readings (
			meter_id, flow_file_id, register_id, value,
			reading_at, reading_type, anomaly_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := t.tx.QueryRow(ctx, query,
		reading.MeterID,
		reading.FlowFileID,
		reading.RegisterID,
		reading.Value,
		reading.ReadingAt,
		reading.ReadingType,
		reading.AnomalyReason,
	).Scan(&reading.ID, &reading.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	return nil
}

// RecentReadingValues returns prior values for the (meter, register) pair,
// most recent first, including rows inserted earlier in this transaction
func (t *importTx) RecentReadingValues(ctx context.Context, meterID uuid.UUID, registerID string, limit int) ([]decimal.Decimal, error) {
	query := `
		SELECT value
		FROM readings
		WHERE meter_id = $1 AND register_id = $2
		ORDER BY reading_at DESC
		LIMIT $3
	`

	rows, err := t.tx.Query(ctx, query, meterID, registerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent readings: %w", err)
	}
	defer rows.Close()

	var values []decimal.Decimal
	for rows.Next() {
		var value decimal.Decimal
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return values, nil
}

// UpdateFlowFileCounts records the final per-file counters
func (t *importTx) UpdateFlowFileCounts(ctx context.Context, flowFileID uuid.UUID, records, readings, errorCount int) error {
	query := `
		UPDATE flow_files
		SET record_count = $2, reading_count = $3, error_count = $4
		WHERE id = $1
	`

	_, err := t.tx.Exec(ctx, query, flowFileID, records, readings, errorCount)
	if err != nil {
		return fmt.Errorf("failed to update flow file counts: %w", err)
	}

	return nil
}

func (t *importTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *importTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
