package application

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/signumlab/signum/internal/domain"
)

// mockDetector implements output.Detector for testing.
type mockDetector struct {
	mu        sync.Mutex
	calls     []string
	flagsFor  map[string][]string // path -> classes to flag
	failOn    string              // path that triggers an inference error
	healthErr error
}

func (m *mockDetector) Detect(_ context.Context, path string) (*domain.Detection, error) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	if m.failOn != "" && path == m.failOn {
		return nil, &domain.InferenceError{Path: path, Err: domain.ErrDetectorUnavailable}
	}

	flags := domain.NewFlags()
	if m.flagsFor != nil {
		for _, class := range m.flagsFor[path] {
			flags[class] = true
		}
	}

	return &domain.Detection{
		Flags:   flags,
		Overlay: image.NewNRGBA(image.Rect(0, 0, 1, 1)),
	}, nil
}

func (m *mockDetector) CheckHealth(_ context.Context) error {
	return m.healthErr
}

func (m *mockDetector) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockGeotag implements output.GeotagExtractor for testing.
type mockGeotag struct {
	coords map[string]domain.Coordinate // path -> coordinate
}

func (m *mockGeotag) Extract(path string) domain.Coordinate {
	if m.coords != nil {
		if c, ok := m.coords[path]; ok {
			return c
		}
	}
	return domain.NoGeotag
}

// mockExporter implements output.SnapshotExporter for testing. It
// serializes rows into a deterministic line format so export tests can
// compare bytes.
type mockExporter struct{}

func (mockExporter) Header() []string {
	return append([]string{"id", "image_name"}, domain.Classes...)
}

func (mockExporter) Write(w io.Writer, rows []domain.SnapshotRow) error {
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%d|%s|%s|%v\n", row.ID, row.Filename, row.Subdistrict, row.Flags); err != nil {
			return err
		}
	}
	return nil
}

// mockIndex implements output.BoundaryIndex for testing.
type mockIndex struct {
	ready       bool
	label       string // label returned for every contained point
	contained   bool   // whether lookups match
	lookupErr   error
	sawDeadline bool // whether the last Lookup context carried a deadline
}

func (m *mockIndex) Load(_ context.Context, path string) (*domain.BoundaryDataset, error) {
	return &domain.BoundaryDataset{ID: "test", Path: path, Reprojected: true, PolygonCount: 1}, nil
}

func (m *mockIndex) Dataset() *domain.BoundaryDataset {
	if !m.ready {
		return nil
	}
	return &domain.BoundaryDataset{ID: "test", Reprojected: true, PolygonCount: 1}
}

func (m *mockIndex) Ready() bool {
	return m.ready
}

func (m *mockIndex) Status() domain.BoundaryStatus {
	if !m.ready {
		return domain.BoundaryAbsent
	}
	return domain.BoundaryReady
}

func (m *mockIndex) Lookup(ctx context.Context, _ domain.Coordinate) (domain.LookupResult, error) {
	_, m.sawDeadline = ctx.Deadline()
	if m.lookupErr != nil {
		return domain.LookupResult{}, m.lookupErr
	}
	if !m.contained {
		return domain.LookupResult{Subdistrict: domain.SubdistrictOutside}, nil
	}
	return domain.LookupResult{Subdistrict: m.label, FID: 1, Matched: true}, nil
}

func (m *mockIndex) Close() error {
	return nil
}
