package output

import (
	"context"

	"github.com/signumlab/signum/internal/domain"
)

// BoundaryIndex defines the secondary port for the administrative
// boundary dataset. The index is loaded once at startup and read-only
// afterward; Lookup is safe for concurrent use once Ready.
type BoundaryIndex interface {
	// Load opens the dataset file, reprojects its geometries to the
	// canonical CRS, and builds the spatial index.
	Load(ctx context.Context, path string) (*domain.BoundaryDataset, error)

	// Dataset returns the loaded dataset, or nil before a successful Load.
	Dataset() *domain.BoundaryDataset

	// Status reports the load state of the dataset.
	Status() domain.BoundaryStatus

	// Ready returns true if the index is loaded and queryable.
	Ready() bool

	// Lookup finds the polygon containing the coordinate. When several
	// polygons contain the point, the lowest feature id wins.
	Lookup(ctx context.Context, coord domain.Coordinate) (domain.LookupResult, error)

	// Close releases the index.
	Close() error
}
