package anomaly

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Detector flags suspicious register readings with configurable thresholds.
// D0010 registers are cumulative, so a value below the previous reading or a
// sudden multiple of the rolling average is worth flagging. Flags never
// reject a reading; they are stored alongside it.
type Detector struct {
	spikeThreshold            decimal.Decimal
	minDataPointsForDetection int
}

// NewDetector creates a new anomaly detector with the specified thresholds
func NewDetector(spikeThreshold float64, minDataPointsForDetection int) *Detector {
	return &Detector{
		spikeThreshold:            decimal.NewFromFloat(spikeThreshold),
		minDataPointsForDetection: minDataPointsForDetection,
	}
}

// Check inspects a register value against prior values for the same
// (meter, register), most recent first. It returns whether the value is
// anomalous and the reason.
func (d *Detector) Check(value decimal.Decimal, previous []decimal.Decimal) (bool, string) {
	// Cumulative registers never decrease
	if len(previous) > 0 && value.LessThan(previous[0]) {
		return true, fmt.Sprintf("register rollback: value %s below previous reading %s",
			value, previous[0])
	}

	// Need enough history for spike detection
	if len(previous) < d.minDataPointsForDetection {
		return false, ""
	}

	// Calculate rolling average
	sum := decimal.Zero
	for _, v := range previous {
		sum = sum.Add(v)
	}
	average := sum.Div(decimal.NewFromInt(int64(len(previous))))

	// Detect sudden spike (>threshold x rolling average)
	if average.IsPositive() && value.GreaterThan(d.spikeThreshold.Mul(average)) {
		return true, fmt.Sprintf("sudden spike: value %s exceeds %sx rolling average %s",
			value, d.spikeThreshold, average.Round(2))
	}

	return false, ""
}
