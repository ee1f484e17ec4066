package importer

import (
	"github.com/meterflow/d0010-ingest/internal/db"
)

// tracker holds the order-dependent parsing context of one flow file. The
// format nests records strictly (one 026, then its 028s, each followed by
// its 030s), so a reading line carries no parent identifiers: it belongs to
// the most recently seen meter, which belongs to the most recently seen
// meter point.
type tracker struct {
	meterPoint *db.MeterPoint
	meter      *db.Meter
}

// setMeterPoint makes mp the current meter point and clears the current
// meter; a meter from a previous 026 block must never adopt readings.
func (t *tracker) setMeterPoint(mp *db.MeterPoint) {
	t.meterPoint = mp
	t.meter = nil
}

func (t *tracker) setMeter(m *db.Meter) {
	t.meter = m
}

// clear drops all context. A rejected meter-point record must orphan the
// rest of its block; letting records attach to the previous meter point
// would file them under the wrong MPAN.
func (t *tracker) clear() {
	t.meterPoint = nil
	t.meter = nil
}

// clearMeter drops the current meter so readings after a rejected meter
// record are orphaned instead of attached to the previous meter
func (t *tracker) clearMeter() {
	t.meter = nil
}
