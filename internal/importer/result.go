package importer

import (
	"github.com/meterflow/d0010-ingest/internal/d0010"
	"github.com/meterflow/d0010-ingest/internal/db"
)

// RecordError is one recoverable per-line failure or warning, in file order
type RecordError struct {
	Line    int             `json:"line"`
	Kind    d0010.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

// Result summarizes one flow-file import. A dry run returns the same counts
// a committing run would, with nothing persisted.
type Result struct {
	FlowFile           *db.FlowFile  `json:"flow_file"`
	DryRun             bool          `json:"dry_run"`
	RecordCount        int           `json:"record_count"`
	MeterPointsCreated int           `json:"meter_points_created"`
	MetersCreated      int           `json:"meters_created"`
	ReadingsCreated    int           `json:"readings_created"`
	RecordsSkipped     int           `json:"records_skipped"`
	Errors             []RecordError `json:"errors"`
}
