package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "d0010",
		Subsystem: "import",
		Name:      "files_total",
		Help:      "Total number of flow-file imports broken down by outcome.",
	}, []string{"outcome"})

	readingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "d0010",
		Subsystem: "import",
		Name:      "readings_created_total",
		Help:      "Total number of readings persisted by committed imports.",
	})

	recordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "d0010",
		Subsystem: "import",
		Name:      "records_skipped_total",
		Help:      "Total number of records skipped during import broken down by error kind.",
	}, []string{"kind"})

	importDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "d0010",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Duration distribution of flow-file imports.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)

const (
	outcomeCommitted = "committed"
	outcomeDryRun    = "dry_run"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)
