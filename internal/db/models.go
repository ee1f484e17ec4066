package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlowFile represents one imported D0010 source file
type FlowFile struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	ImportedAt   time.Time `json:"imported_at"`
	RecordCount  int       `json:"record_count"`
	ReadingCount int       `json:"reading_count"`
	ErrorCount   int       `json:"error_count"`
}

// MeterPoint represents a consumption point identified by its MPAN
type MeterPoint struct {
	ID        uuid.UUID `json:"id"`
	MPAN      string    `json:"mpan"`
	CreatedAt time.Time `json:"created_at"`
}

// Meter represents a physical device installed at a meter point
type Meter struct {
	ID           uuid.UUID `json:"id"`
	MeterPointID uuid.UUID `json:"meter_point_id"`
	SerialNumber string    `json:"serial_number"`
	MeterType    string    `json:"meter_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Reading represents a single register reading taken from a flow file
type Reading struct {
	ID            uuid.UUID       `json:"id"`
	MeterID       uuid.UUID       `json:"meter_id"`
	FlowFileID    uuid.UUID       `json:"flow_file_id"`
	RegisterID    string          `json:"register_id"`
	Value         decimal.Decimal `json:"value"`
	ReadingAt     time.Time       `json:"reading_at"`
	ReadingType   string          `json:"reading_type"`
	AnomalyReason *string         `json:"anomaly_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
