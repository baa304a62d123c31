// Package exif extracts GPS geotags from image files.
package exif

import (
	"log/slog"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/signumlab/signum/internal/domain"
)

// Extractor reads the GPS tag subset of an image's EXIF block. It
// consumes a fixed schema: latitude and longitude as degree, minute,
// second rationals plus one-character hemisphere references. Anything
// else is treated as absent.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new EXIF geotag extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "exif"),
	}
}

// Extract returns the image's geotag as a WGS84 coordinate. Any missing
// or malformed metadata yields the no-geotag sentinel; extraction never
// fails the caller.
func (e *Extractor) Extract(path string) domain.Coordinate {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Debug("cannot open image for geotag extraction",
			"path", path, "error", err)
		return domain.NoGeotag
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		e.logger.Debug("no exif block", "path", path, "error", err)
		return domain.NoGeotag
	}

	lat, ok := e.dmsField(x, exif.GPSLatitude, exif.GPSLatitudeRef, "S")
	if !ok {
		return domain.NoGeotag
	}
	lon, ok := e.dmsField(x, exif.GPSLongitude, exif.GPSLongitudeRef, "W")
	if !ok {
		return domain.NoGeotag
	}

	coord := domain.NewWGS84Coordinate(lon, lat).Round6()
	if err := coord.Validate(); err != nil {
		e.logger.Debug("geotag outside valid range", "path", path, "error", err)
		return domain.NoGeotag
	}
	return coord
}

// dmsField reads one coordinate axis: a three-rational DMS tag plus its
// hemisphere reference. negativeRef is the hemisphere that flips sign.
func (e *Extractor) dmsField(x *exif.Exif, valueTag, refTag exif.FieldName, negativeRef string) (float64, bool) {
	tag, err := x.Get(valueTag)
	if err != nil {
		return 0, false
	}
	deg, min, sec, ok := dmsParts(tag)
	if !ok {
		return 0, false
	}

	ref, err := x.Get(refTag)
	if err != nil {
		return 0, false
	}
	refVal, err := ref.StringVal()
	if err != nil {
		return 0, false
	}

	return dmsToDecimal(deg, min, sec, refVal == negativeRef), true
}

// dmsParts reads the degree, minute, second rationals from a GPS tag.
func dmsParts(tag *tiff.Tag) (deg, min, sec float64, ok bool) {
	if tag.Count < 3 {
		return 0, 0, 0, false
	}

	var parts [3]float64
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, 0, 0, false
		}
		parts[i] = float64(num) / float64(den)
	}

	return parts[0], parts[1], parts[2], true
}

// dmsToDecimal converts a degree/minute/second triple to decimal
// degrees, negating for the southern and western hemispheres.
func dmsToDecimal(deg, min, sec float64, negative bool) float64 {
	value := deg + min/60 + sec/3600
	if negative {
		value = -value
	}
	return value
}
