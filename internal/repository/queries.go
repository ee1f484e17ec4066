package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meterflow/d0010-ingest/internal/db"
)

// ReadingFilter narrows a reading browse query. Zero values mean no filter.
type ReadingFilter struct {
	RegisterID   string
	SerialNumber string
	Since        *time.Time
	Until        *time.Time
	Limit        int
}

// ReadingRow is a reading joined with its meter for browse responses
type ReadingRow struct {
	ID            uuid.UUID       `json:"id"`
	SerialNumber  string          `json:"serial_number"`
	RegisterID    string          `json:"register_id"`
	Value         decimal.Decimal `json:"value"`
	ReadingAt     time.Time       `json:"reading_at"`
	ReadingType   string          `json:"reading_type"`
	AnomalyReason *string         `json:"anomaly_reason,omitempty"`
	FlowFileID    uuid.UUID       `json:"flow_file_id"`
}

// DayCount is one day's reading volume for the dashboard
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// Stats holds the dashboard summary numbers
type Stats struct {
	FlowFiles      int64         `json:"flow_files"`
	MeterPoints    int64         `json:"meter_points"`
	Meters         int64         `json:"meters"`
	Readings       int64         `json:"readings"`
	ReadingsPerDay []DayCount    `json:"readings_per_day"`
	RecentFiles    []db.FlowFile `json:"recent_files"`
}

// ListFlowFiles returns imported files, most recent first
func (r *Repository) ListFlowFiles(ctx context.Context, limit int) ([]db.FlowFile, error) {
	query := `
		SELECT id, filename, imported_at, record_count, reading_count, error_count
		FROM flow_files
		ORDER BY imported_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow files: %w", err)
	}
	defer rows.Close()

	return scanFlowFiles(rows)
}

// GetFlowFile returns one flow file by id, or nil when not found
func (r *Repository) GetFlowFile(ctx context.Context, id uuid.UUID) (*db.FlowFile, error) {
	query := `
		SELECT id, filename, imported_at, record_count, reading_count, error_count
		FROM flow_files
		WHERE id = $1
	`

	var file db.FlowFile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.Filename,
		&file.ImportedAt,
		&file.RecordCount,
		&file.ReadingCount,
		&file.ErrorCount,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query flow file: %w", err)
	}

	return &file, nil
}

// DeleteFlowFile removes a flow file by id; its readings cascade. Returns
// false when no such file exists.
func (r *Repository) DeleteFlowFile(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM flow_files WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete flow file: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteFlowFileByFilename removes a flow file by filename; its readings
// cascade. Returns false when no such file exists.
func (r *Repository) DeleteFlowFileByFilename(ctx context.Context, filename string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM flow_files WHERE filename = $1`, filename)
	if err != nil {
		return false, fmt.Errorf("failed to delete flow file: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListMeterPoints returns meter points in MPAN order
func (r *Repository) ListMeterPoints(ctx context.Context, limit int) ([]db.MeterPoint, error) {
	query := `
		SELECT id, mpan, created_at
		FROM meter_points
		ORDER BY mpan
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query meter points: %w", err)
	}
	defer rows.Close()

	var meterPoints []db.MeterPoint
	for rows.Next() {
		var mp db.MeterPoint
		if err := rows.Scan(&mp.ID, &mp.MPAN, &mp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meter point: %w", err)
		}
		meterPoints = append(meterPoints, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return meterPoints, nil
}

// GetMeterPointByMPAN returns one meter point with its meters, or nil when
// not found
func (r *Repository) GetMeterPointByMPAN(ctx context.Context, mpan string) (*db.MeterPoint, []db.Meter, error) {
	var meterPoint db.MeterPoint
	err := r.pool.QueryRow(ctx,
		`SELECT id, mpan, created_at FROM meter_points WHERE mpan = $1`, mpan,
	).Scan(&meterPoint.ID, &meterPoint.MPAN, &meterPoint.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query meter point: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, meter_point_id, serial_number, meter_type, created_at
		FROM meters
		WHERE meter_point_id = $1
		ORDER BY serial_number
	`, meterPoint.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query meters: %w", err)
	}
	defer rows.Close()

	var meters []db.Meter
	for rows.Next() {
		var m db.Meter
		if err := rows.Scan(&m.ID, &m.MeterPointID, &m.SerialNumber, &m.MeterType, &m.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan meter: %w", err)
		}
		meters = append(meters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &meterPoint, meters, nil
}

// ListReadingsForMPAN returns readings under one MPAN, newest first,
// narrowed by the filter
func (r *Repository) ListReadingsForMPAN(ctx context.Context, mpan string, filter ReadingFilter) ([]ReadingRow, error) {
	query := `
		SELECT r.id, m.serial_number, r.register_id, r.value,
		       r.reading_at, r.reading_type, r.anomaly_reason, r.flow_file_id
		FROM readings r
		JOIN meters m ON m.id = r.meter_id
		JOIN meter_points mp ON mp.id = m.meter_point_id
		WHERE mp.mpan = $1
	`
	args := []interface{}{mpan}

	if filter.RegisterID != "" {
		args = append(args, filter.RegisterID)
		query += fmt.Sprintf(" AND r.register_id = $%d", len(args))
	}
	if filter.SerialNumber != "" {
		args = append(args, filter.SerialNumber)
		query += fmt.Sprintf(" AND m.serial_number = $%d", len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += fmt.Sprintf(" AND r.reading_at >= $%d", len(args))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		query += fmt.Sprintf(" AND r.reading_at <= $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY r.reading_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []ReadingRow
	for rows.Next() {
		var row ReadingRow
		if err := rows.Scan(
			&row.ID,
			&row.SerialNumber,
			&row.RegisterID,
			&row.Value,
			&row.ReadingAt,
			&row.ReadingType,
			&row.AnomalyReason,
			&row.FlowFileID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}

// SummaryStats collects the dashboard numbers: entity totals, reading
// volume per day over the window, and the most recent files
func (r *Repository) SummaryStats(ctx context.Context, days, recentFiles int) (*Stats, error) {
	stats := &Stats{}

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM flow_files),
			(SELECT count(*) FROM meter_points),
			(SELECT count(*) FROM meters),
			(SELECT count(*) FROM readings)
	`).Scan(&stats.FlowFiles, &stats.MeterPoints, &stats.Meters, &stats.Readings)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', reading_at) AS day, count(*)
		FROM readings
		WHERE reading_at >= now() - make_interval(days => $1)
		GROUP BY day
		ORDER BY day
	`, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings per day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		stats.ReadingsPerDay = append(stats.ReadingsPerDay, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	stats.RecentFiles, err = r.ListFlowFiles(ctx, recentFiles)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func scanFlowFiles(rows pgx.Rows) ([]db.FlowFile, error) {
	var files []db.FlowFile
	for rows.Next() {
		var file db.FlowFile
		if err := rows.Scan(
			&file.ID,
			&file.Filename,
			&file.ImportedAt,
			&file.RecordCount,
			&file.ReadingCount,
			&file.ErrorCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flow file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return files, nil
}
