package application

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/signumlab/signum/internal/domain"
	"github.com/signumlab/signum/internal/ports/output"
)

// RecordStore owns the growing, editable sequence of image records.
// It is the single writer: the batch worker only ever hands back a
// finished batch for the store to append. Record ids are dense and
// contiguous (0..N-1) in store order at all times; deletion restores
// the invariant by renumbering.
type RecordStore struct {
	exporter output.SnapshotExporter
	metrics  output.MetricsCollector
	logger   *slog.Logger

	mu      sync.RWMutex
	records []domain.ImageRecord
}

// NewRecordStore creates an empty record store.
func NewRecordStore(exporter output.SnapshotExporter, metrics output.MetricsCollector, logger *slog.Logger) *RecordStore {
	return &RecordStore{
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
	}
}

// Append concatenates a finished batch onto the store. The batch
// arrives with ids already assigned as storeLength+index, so the
// contiguity invariant holds without revalidation.
func (s *RecordStore) Append(batch []domain.ImageRecord) {
	if len(batch) == 0 {
		return
	}

	s.mu.Lock()
	s.records = append(s.records, batch...)
	count := len(s.records)
	s.mu.Unlock()

	s.metrics.SetRecordCount(count)
	s.logger.Info("batch appended", "added", len(batch), "total", count)
}

// Count returns the current record count. The batch orchestrator uses
// it as the id offset for the next run.
func (s *RecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// List returns the records in store order.
func (s *RecordStore) List(_ context.Context) []domain.ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ImageRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns one record by id.
func (s *RecordStore) Get(_ context.Context, id int) (*domain.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 0 || id >= len(s.records) {
		return nil, domain.ErrRecordNotFound
	}

	rec := s.records[id]
	return &rec, nil
}

// Delete removes every record whose id is in ids, then renumbers the
// remainder to 0..N'-1 in store order. Unknown ids are ignored; an
// empty store is a no-op.
func (s *RecordStore) Delete(_ context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return nil
	}

	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	before := len(s.records)
	kept := s.records[:0]
	for _, rec := range s.records {
		if drop[rec.ID] {
			continue
		}
		kept = append(kept, rec)
	}

	// Dense re-indexing keeps the contiguity invariant mechanical.
	for i := range kept {
		kept[i].ID = i
	}
	s.records = kept

	s.metrics.SetRecordCount(len(s.records))
	// Unknown ids are ignored, so count what actually went away.
	s.logger.Info("records deleted", "removed", before-len(s.records), "remaining", len(s.records))
	return nil
}

// ToggleDetection overwrites a single class flag on a record. The flag
// map is the single source of truth after load; the store does not
// remember what the model originally said.
func (s *RecordStore) ToggleDetection(_ context.Context, id int, class string, value bool) error {
	canonical, ok := domain.KnownClass(class)
	if !ok {
		return domain.ErrUnknownClass
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 0 || id >= len(s.records) {
		return domain.ErrRecordNotFound
	}

	s.records[id].Detections[canonical] = value
	return nil
}

// Overlay returns the rendered detection overlay for a record.
func (s *RecordStore) Overlay(_ context.Context, id int) (*image.NRGBA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 0 || id >= len(s.records) {
		return nil, domain.ErrRecordNotFound
	}
	if s.records[id].Overlay == nil {
		return nil, domain.ErrNotFound
	}
	return s.records[id].Overlay, nil
}

// ExportCSV writes the flattened snapshot of the record set. Export
// never mutates the store, so back-to-back exports are identical.
func (s *RecordStore) ExportCSV(_ context.Context, w io.Writer) error {
	s.mu.RLock()
	rows := make([]domain.SnapshotRow, 0, len(s.records))
	for _, rec := range s.records {
		rows = append(rows, rec.Snapshot())
	}
	s.mu.RUnlock()

	return s.exporter.Write(w, rows)
}
