package domain

import (
	"image"
	"path/filepath"
)

// Classes is the fixed provider marking vocabulary, in table and export
// column order. Detection flags are keyed by these names.
var Classes = []string{"Indihome", "Indosat", "MyRepublic", "Lintasarta", "CBN"}

// Subdistrict sentinel labels. Real subdistrict names come from the boundary
// dataset's label attribute.
const (
	SubdistrictUnknown = "Unknown"      // no geotag, or no boundary index loaded
	SubdistrictOutside = "Outside Area" // geotag valid but no polygon contains it
	SubdistrictError   = "Error"        // lookup failed
)

// Flags maps each class name to its detection flag. The flag is initially
// set by the model and independently user-editable afterward; the record does
// not distinguish the two.
type Flags map[string]bool

// NewFlags returns a flag set with every class present and false.
func NewFlags() Flags {
	f := make(Flags, len(Classes))
	for _, c := range Classes {
		f[c] = false
	}
	return f
}

// Clone returns a copy of the flag set.
func (f Flags) Clone() Flags {
	out := make(Flags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Ordered returns the flag values in Classes order.
func (f Flags) Ordered() []bool {
	out := make([]bool, len(Classes))
	for i, c := range Classes {
		out[i] = f[c]
	}
	return out
}

// ImageRecord is the result of processing one photograph.
type ImageRecord struct {
	ID          int          // Dense position id; the store renumbers on delete
	Path        string       // Source image path (immutable)
	Filename    string       // Base name of the source image (immutable)
	Longitude   float64      // Decimal degrees, 6-decimal precision; 0 with Latitude 0 means no geotag
	Latitude    float64      // Decimal degrees, 6-decimal precision
	Subdistrict string       // Resolved label or a subdistrict sentinel
	Detections  Flags        // Per-class flags, user-editable after load
	Overlay     *image.NRGBA // Rendered detection overlay, same lifetime as the record
}

// NewImageRecord builds a record for a processed image. The coordinate is
// stored rounded to 6 decimals.
func NewImageRecord(id int, path string, coord Coordinate, subdistrict string, flags Flags, overlay *image.NRGBA) ImageRecord {
	coord = coord.Round6()
	return ImageRecord{
		ID:          id,
		Path:        path,
		Filename:    filepath.Base(path),
		Longitude:   coord.Lon,
		Latitude:    coord.Lat,
		Subdistrict: subdistrict,
		Detections:  flags,
		Overlay:     overlay,
	}
}

// Coordinate returns the record's coordinate as a WGS84 value.
func (r *ImageRecord) Coordinate() Coordinate {
	return NewWGS84Coordinate(r.Longitude, r.Latitude)
}

// HasGeotag returns true if the record carries a real geotag.
func (r *ImageRecord) HasGeotag() bool {
	return !r.Coordinate().IsNoGeotag()
}

// SnapshotRow is one flattened export row: current record state at export
// time. Exported ids reflect store position, not a permanent identity.
type SnapshotRow struct {
	ID          int
	Filename    string
	Longitude   float64
	Latitude    float64
	Subdistrict string
	Flags       []bool // in Classes order
}

// Snapshot returns the record flattened for export.
func (r *ImageRecord) Snapshot() SnapshotRow {
	return SnapshotRow{
		ID:          r.ID,
		Filename:    r.Filename,
		Longitude:   r.Longitude,
		Latitude:    r.Latitude,
		Subdistrict: r.Subdistrict,
		Flags:       r.Detections.Ordered(),
	}
}
