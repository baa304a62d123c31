// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/signumlab/signum/internal/domain"
)

// BatchService defines the primary port for staging and running image
// batches. At most one run is active at a time.
type BatchService interface {
	// Stage adds image paths to the pending batch. Returns the number
	// of images staged in total.
	Stage(ctx context.Context, paths []string) (int, error)

	// ClearStaged discards all staged images.
	ClearStaged(ctx context.Context) error

	// Run starts processing the staged images on a background worker.
	// It returns immediately; progress and the terminal outcome arrive
	// on the event channel.
	Run(ctx context.Context) error

	// Cancel requests cooperative cancellation of the active run. The
	// in-flight image finishes; unprocessed images are skipped.
	Cancel(ctx context.Context) error

	// Status returns a point-in-time view of the orchestrator.
	Status(ctx context.Context) domain.BatchStatus

	// Events returns the ordered event channel for the service. Zero or
	// more progress events precede exactly one terminal event per run.
	Events() <-chan domain.BatchEvent
}

// AttributionService defines the primary port for standalone
// coordinate-to-subdistrict resolution.
type AttributionService interface {
	// Resolve maps a coordinate to a subdistrict label or one of the
	// sentinels Unknown, Outside Area, Error. It never fails.
	Resolve(ctx context.Context, coord domain.Coordinate) string

	// Dataset returns the loaded boundary dataset and its load status.
	// The dataset is nil until a successful load.
	Dataset(ctx context.Context) (*domain.BoundaryDataset, domain.BoundaryStatus)
}
