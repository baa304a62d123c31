package application

import (
	"context"
	"time"

	"github.com/signumlab/signum/internal/ports/input"
	"github.com/signumlab/signum/internal/ports/output"
)

// HealthService provides health check functionality.
type HealthService struct {
	index    output.BoundaryIndex
	detector output.Detector
	records  *RecordStore
}

// NewHealthService creates a new health service.
func NewHealthService(index output.BoundaryIndex, detector output.Detector, records *RecordStore) *HealthService {
	return &HealthService{
		index:    index,
		detector: detector,
		records:  records,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// IsReady returns true if the service is ready to accept batch runs.
// The boundary index is optional: lookups degrade to "Unknown" without
// it. The detector is not: a run cannot start without the model.
func (s *HealthService) IsReady(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.detector.CheckHealth(probeCtx) == nil
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	components := map[string]string{
		"detector": "ok",
		"boundary": "ok",
	}

	ready := s.IsReady(ctx)
	if !ready {
		components["detector"] = "unreachable"
	}

	datasetReady := s.index != nil && s.index.Ready()
	if !datasetReady {
		components["boundary"] = "degraded"
	}

	return input.HealthDetails{
		Healthy:      s.IsHealthy(ctx),
		Ready:        ready,
		DatasetReady: datasetReady,
		RecordCount:  s.records.Count(),
		Components:   components,
	}
}
