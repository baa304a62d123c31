package application

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/signumlab/signum/internal/domain"
	"github.com/signumlab/signum/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestAttributionResolveMatched(t *testing.T) {
	index := &mockIndex{ready: true, contained: true, label: "Menteng"}
	s := NewAttributionService(index, 0, &output.NoOpMetrics{}, testLogger())

	got := s.Resolve(context.Background(), domain.NewWGS84Coordinate(106.8456, -6.2088))
	if got != "Menteng" {
		t.Errorf("Resolve() = %q, want Menteng", got)
	}
}

func TestAttributionResolveOutside(t *testing.T) {
	index := &mockIndex{ready: true, contained: false}
	s := NewAttributionService(index, 0, &output.NoOpMetrics{}, testLogger())

	got := s.Resolve(context.Background(), domain.NewWGS84Coordinate(10.0, 50.0))
	if got != domain.SubdistrictOutside {
		t.Errorf("Resolve() = %q, want %q", got, domain.SubdistrictOutside)
	}
}

func TestAttributionResolveSentinelCoordinate(t *testing.T) {
	// A polygon covering the origin must not capture the no-geotag
	// sentinel.
	index := &mockIndex{ready: true, contained: true, label: "OriginPolygon"}
	s := NewAttributionService(index, 0, &output.NoOpMetrics{}, testLogger())

	got := s.Resolve(context.Background(), domain.NoGeotag)
	if got != domain.SubdistrictUnknown {
		t.Errorf("Resolve(sentinel) = %q, want %q", got, domain.SubdistrictUnknown)
	}
}

func TestAttributionResolveIndexNotReady(t *testing.T) {
	index := &mockIndex{ready: false}
	s := NewAttributionService(index, 0, &output.NoOpMetrics{}, testLogger())

	got := s.Resolve(context.Background(), domain.NewWGS84Coordinate(106.8456, -6.2088))
	if got != domain.SubdistrictUnknown {
		t.Errorf("Resolve() = %q, want %q", got, domain.SubdistrictUnknown)
	}
}

func TestAttributionResolveNilIndex(t *testing.T) {
	s := NewAttributionService(nil, 0, &output.NoOpMetrics{}, testLogger())

	got := s.Resolve(context.Background(), domain.NewWGS84Coordinate(106.8456, -6.2088))
	if got != domain.SubdistrictUnknown {
		t.Errorf("Resolve() = %q, want %q", got, domain.SubdistrictUnknown)
	}
}

func TestAttributionResolveLookupError(t *testing.T) {
	index := &mockIndex{ready: true, lookupErr: errors.New("corrupted index")}
	s := NewAttributionService(index, 0, &output.NoOpMetrics{}, testLogger())

	got := s.Resolve(context.Background(), domain.NewWGS84Coordinate(106.8456, -6.2088))
	if got != domain.SubdistrictError {
		t.Errorf("Resolve() = %q, want %q", got, domain.SubdistrictError)
	}
}

func TestAttributionLookupTimeoutBoundsQueries(t *testing.T) {
	index := &mockIndex{ready: true, contained: true, label: "Menteng"}
	coord := domain.NewWGS84Coordinate(106.8456, -6.2088)

	s := NewAttributionService(index, 10*time.Second, &output.NoOpMetrics{}, testLogger())
	s.Resolve(context.Background(), coord)
	if !index.sawDeadline {
		t.Error("configured lookup timeout did not reach the index query")
	}

	s = NewAttributionService(index, 0, &output.NoOpMetrics{}, testLogger())
	s.Resolve(context.Background(), coord)
	if index.sawDeadline {
		t.Error("zero lookup timeout must leave the query unbounded")
	}
}

func TestAttributionDataset(t *testing.T) {
	s := NewAttributionService(&mockIndex{ready: true}, 0, &output.NoOpMetrics{}, testLogger())
	dataset, status := s.Dataset(context.Background())
	if dataset == nil || status != domain.BoundaryReady {
		t.Errorf("Dataset() = %v, %s, want dataset and ready", dataset, status)
	}

	s = NewAttributionService(nil, 0, &output.NoOpMetrics{}, testLogger())
	dataset, status = s.Dataset(context.Background())
	if dataset != nil || status != domain.BoundaryAbsent {
		t.Errorf("Dataset() without index = %v, %s, want nil and absent", dataset, status)
	}
}
