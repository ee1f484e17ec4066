package importer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meterflow/d0010-ingest/internal/db"
)

// ErrDuplicateFile is returned when a flow file with the same filename has
// already been imported. The check happens before any parsing.
var ErrDuplicateFile = errors.New("flow file already imported")

// StructuralError wraps a fatal mid-parse failure (unreadable stream,
// unopenable path). It always aborts the whole transaction.
type StructuralError struct {
	Err error
}

func (e *StructuralError) Error() string {
	return "structural error reading flow file: " + e.Err.Error()
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// Store begins per-file import transactions
type Store interface {
	BeginImport(ctx context.Context) (Tx, error)
}

// Tx is the transactional unit of work for one flow-file import. All writes
// within one Import call go through a single Tx; Commit and Rollback decide
// the file's fate as a whole.
type Tx interface {
	// CreateFlowFile inserts the flow-file row. Returns ErrDuplicateFile
	// (possibly wrapped) when the filename is already recorded.
	CreateFlowFile(ctx context.Context, filename string, importedAt time.Time) (*db.FlowFile, error)

	// GetOrCreateMeterPoint resolves a meter point by MPAN, creating it on
	// first encounter. The bool reports whether a new row was created.
	GetOrCreateMeterPoint(ctx context.Context, mpan string) (*db.MeterPoint, bool, error)

	// GetOrCreateMeter resolves a meter by (meter point, serial), creating
	// it on first encounter. The bool reports whether a new row was created.
	GetOrCreateMeter(ctx context.Context, meterPointID uuid.UUID, serial, meterType string) (*db.Meter, bool, error)

	// InsertReading persists one register reading
	InsertReading(ctx context.Context, reading *db.Reading) error

	// RecentReadingValues returns up to limit prior values for the
	// (meter, register) pair, most recent first, for anomaly flagging
	RecentReadingValues(ctx context.Context, meterID uuid.UUID, registerID string, limit int) ([]decimal.Decimal, error)

	// UpdateFlowFileCounts records the final per-file counters on the
	// flow-file row within the same transaction
	UpdateFlowFileCounts(ctx context.Context, flowFileID uuid.UUID, records, readings, errorCount int) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
