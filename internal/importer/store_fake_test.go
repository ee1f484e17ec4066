package importer_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meterflow/d0010-ingest/internal/db"
	"github.com/meterflow/d0010-ingest/internal/importer"
)

// fakeStore is an in-memory importer.Store. Writes stage on the fakeTx and
// only land in the store on Commit, mirroring the transactional contract.
type fakeStore struct {
	files       map[string]*db.FlowFile
	meterPoints map[string]*db.MeterPoint
	meters      map[string]*db.Meter
	readings    []*db.Reading
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:       make(map[string]*db.FlowFile),
		meterPoints: make(map[string]*db.MeterPoint),
		meters:      make(map[string]*db.Meter),
	}
}

func (s *fakeStore) BeginImport(ctx context.Context) (importer.Tx, error) {
	return &fakeTx{
		store:       s,
		meterPoints: make(map[string]*db.MeterPoint),
		meters:      make(map[string]*db.Meter),
	}, nil
}

type fakeTx struct {
	store       *fakeStore
	file        *db.FlowFile
	meterPoints map[string]*db.MeterPoint
	meters      map[string]*db.Meter
	readings    []*db.Reading
	done        bool
}

func meterKey(meterPointID uuid.UUID, serial string) string {
	return meterPointID.String() + "/" + serial
}

func (t *fakeTx) CreateFlowFile(ctx context.Context, filename string, importedAt time.Time) (*db.FlowFile, error) {
	if _, exists := t.store.files[filename]; exists {
		return nil, fmt.Errorf("flow file %q: %w", filename, importer.ErrDuplicateFile)
	}
	t.file = &db.FlowFile{
		ID:         uuid.New(),
		Filename:   filename,
		ImportedAt: importedAt,
	}
	return t.file, nil
}

func (t *fakeTx) GetOrCreateMeterPoint(ctx context.Context, mpan string) (*db.MeterPoint, bool, error) {
	if mp, ok := t.store.meterPoints[mpan]; ok {
		return mp, false, nil
	}
	if mp, ok := t.meterPoints[mpan]; ok {
		return mp, false, nil
	}
	mp := &db.MeterPoint{ID: uuid.New(), MPAN: mpan, CreatedAt: time.Now()}
	t.meterPoints[mpan] = mp
	return mp, true, nil
}

func (t *fakeTx) GetOrCreateMeter(ctx context.Context, meterPointID uuid.UUID, serial, meterType string) (*db.Meter, bool, error) {
	key := meterKey(meterPointID, serial)
	if m, ok := t.store.meters[key]; ok {
		return m, false, nil
	}
	if m, ok := t.meters[key]; ok {
		return m, false, nil
	}
	m := &db.Meter{
		ID:           uuid.New(),
		MeterPointID: meterPointID,
		SerialNumber: serial,
		MeterType:    meterType,
		CreatedAt:    time.Now(),
	}
	t.meters[key] = m
	return m, true, nil
}

func (t *fakeTx) InsertReading(ctx context.Context, reading *db.Reading) error {
	reading.ID = uuid.New()
	reading.CreatedAt = time.Now()
	t.readings = append(t.readings, reading)
	return nil
}

func (t *fakeTx) RecentReadingValues(ctx context.Context, meterID uuid.UUID, registerID string, limit int) ([]decimal.Decimal, error) {
	var matched []*db.Reading
	for _, r := range t.store.readings {
		if r.MeterID == meterID && r.RegisterID == registerID {
			matched = append(matched, r)
		}
	}
	for _, r := range t.readings {
		if r.MeterID == meterID && r.RegisterID == registerID {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ReadingAt.After(matched[j].ReadingAt)
	})

	var values []decimal.Decimal
	for _, r := range matched {
		if len(values) == limit {
			break
		}
		values = append(values, r.Value)
	}
	return values, nil
}

func (t *fakeTx) UpdateFlowFileCounts(ctx context.Context, flowFileID uuid.UUID, records, readings, errorCount int) error {
	t.file.RecordCount = records
	t.file.ReadingCount = readings
	t.file.ErrorCount = errorCount
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.file != nil {
		t.store.files[t.file.Filename] = t.file
	}
	for mpan, mp := range t.meterPoints {
		t.store.meterPoints[mpan] = mp
	}
	for key, m := range t.meters {
		t.store.meters[key] = m
	}
	t.store.readings = append(t.store.readings, t.readings...)
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}
