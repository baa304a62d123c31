package output

import (
	"context"

	"github.com/signumlab/signum/internal/domain"
)

// Detector defines the secondary port for the object detection model.
// Detect errors are fatal to the whole batch run.
type Detector interface {
	// Detect runs the model on one image and reduces the result to
	// per-class flags plus a rendered overlay.
	Detect(ctx context.Context, path string) (*domain.Detection, error)

	// CheckHealth probes the model service.
	CheckHealth(ctx context.Context) error
}

// GeotagExtractor defines the secondary port for reading an image's
// embedded GPS metadata. Extraction never fails: any missing or
// malformed metadata yields the no-geotag sentinel.
type GeotagExtractor interface {
	Extract(path string) domain.Coordinate
}
