package domain

import "time"

// BoundaryDataset represents the loaded administrative boundary dataset.
// It is loaded once at startup and immutable afterward.
type BoundaryDataset struct {
	ID           string    // Unique identifier (derived from filename)
	Name         string    // Display name
	Path         string    // File path
	Size         int64     // File size in bytes
	Format       string    // Source format (gpkg, geojson)
	LabelColumn  string    // Attribute column naming each region
	SourceSRID   int       // CRS of the source file
	PolygonCount int64     // Number of polygon features
	Extent       *Extent   // Bounding box in the canonical CRS (optional)
	Metadata     Metadata  // Dataset metadata
	License      License   // License information
	Reprojected  bool      // Reprojected to the canonical CRS at load?
	LoadedAt     time.Time // Load timestamp
	LastQueried  time.Time // Last lookup timestamp
}

// IsReady returns true if the dataset is reprojected and queryable.
func (d *BoundaryDataset) IsReady() bool {
	return d.Reprojected && d.PolygonCount > 0
}

// Region is one polygon feature in the boundary dataset.
type Region struct {
	FID   int64  // Feature id; lookup ties break on the lowest fid
	Label string // Administrative area label
}

// BoundaryStatus represents the load state of the boundary dataset.
type BoundaryStatus string

// Boundary dataset states.
const (
	BoundaryLoading      BoundaryStatus = "loading"
	BoundaryReprojecting BoundaryStatus = "reprojecting"
	BoundaryReady        BoundaryStatus = "ready"
	BoundaryError        BoundaryStatus = "error"
	BoundaryAbsent       BoundaryStatus = "absent"
)
