package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/signumlab/signum/internal/domain"
	"github.com/signumlab/signum/internal/ports/output"
)

// AttributionService resolves coordinates to administrative
// subdistrict labels. Every failure mode degrades to a sentinel; the
// service never returns an error.
type AttributionService struct {
	index         output.BoundaryIndex
	lookupTimeout time.Duration
	metrics       output.MetricsCollector
	logger        *slog.Logger
}

// NewAttributionService creates a new attribution service. A zero
// lookupTimeout leaves point queries unbounded.
func NewAttributionService(index output.BoundaryIndex, lookupTimeout time.Duration, metrics output.MetricsCollector, logger *slog.Logger) *AttributionService {
	return &AttributionService{
		index:         index,
		lookupTimeout: lookupTimeout,
		metrics:       metrics,
		logger:        logger,
	}
}

// Resolve maps a coordinate to a subdistrict label. The sentinel
// coordinate resolves to Unknown without touching the index, so a
// missing geotag can never coincidentally match a polygon at the
// origin.
func (s *AttributionService) Resolve(ctx context.Context, coord domain.Coordinate) string {
	if coord.IsNoGeotag() {
		s.metrics.IncLookupCount("no_geotag")
		return domain.SubdistrictUnknown
	}

	if s.index == nil || !s.index.Ready() {
		s.metrics.IncLookupCount("unavailable")
		return domain.SubdistrictUnknown
	}

	lookupCtx := ctx
	if s.lookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
	}

	result, err := s.index.Lookup(lookupCtx, coord)
	if err != nil {
		s.logger.Warn("spatial lookup failed",
			"lon", coord.Lon, "lat", coord.Lat, "error", err)
		s.metrics.IncLookupCount("error")
		return domain.SubdistrictError
	}

	s.metrics.ObserveLookupDuration(result.LookupTime)

	if !result.Matched {
		s.metrics.IncLookupCount("outside")
		return domain.SubdistrictOutside
	}

	s.metrics.IncLookupCount("matched")
	return result.Subdistrict
}

// Dataset returns the loaded boundary dataset and its load status. The
// dataset is nil until a successful load.
func (s *AttributionService) Dataset(_ context.Context) (*domain.BoundaryDataset, domain.BoundaryStatus) {
	if s.index == nil {
		return nil, domain.BoundaryAbsent
	}
	return s.index.Dataset(), s.index.Status()
}
