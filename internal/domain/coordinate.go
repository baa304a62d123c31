// Package domain contains the core business entities and value objects.
package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a geographic coordinate in decimal degrees,
// longitude first to match point construction downstream.
type Coordinate struct {
	Lon  float64 // Longitude (decimal degrees)
	Lat  float64 // Latitude (decimal degrees)
	SRID int     // Spatial Reference ID
}

// NewWGS84Coordinate creates a WGS84 (EPSG:4326) coordinate.
func NewWGS84Coordinate(lon, lat float64) Coordinate {
	return Coordinate{Lon: lon, Lat: lat, SRID: SRIDWGS84}
}

// NoGeotag is the sentinel coordinate meaning "no geolocation available".
// It is distinguished from a real near-origin coordinate by policy, not value.
var NoGeotag = Coordinate{Lon: 0, Lat: 0, SRID: SRIDWGS84}

// IsNoGeotag returns true if the coordinate is the no-geotag sentinel.
func (c Coordinate) IsNoGeotag() bool {
	return c.Lon == 0 && c.Lat == 0
}

// Validate checks if the coordinate is valid for WGS84.
func (c Coordinate) Validate() error {
	if c.SRID == SRIDWGS84 || c.SRID == 0 {
		if c.Lon < -180 || c.Lon > 180 {
			return &ValidationError{
				Field:      "longitude",
				Value:      c.Lon,
				Constraint: "[-180, 180]",
				Message:    "longitude must be between -180 and 180",
			}
		}
		if c.Lat < -90 || c.Lat > 90 {
			return &ValidationError{
				Field:      "latitude",
				Value:      c.Lat,
				Constraint: "[-90, 90]",
				Message:    "latitude must be between -90 and 90",
			}
		}
	}
	return nil
}

// Round6 returns the coordinate rounded to 6 decimal places, the precision
// carried by image records and exports.
func (c Coordinate) Round6() Coordinate {
	return Coordinate{
		Lon:  math.Round(c.Lon*1e6) / 1e6,
		Lat:  math.Round(c.Lat*1e6) / 1e6,
		SRID: c.SRID,
	}
}

// String returns a string representation of the coordinate.
func (c Coordinate) String() string {
	return fmt.Sprintf("POINT(%f %f) SRID=%d", c.Lon, c.Lat, c.SRID)
}

// WKT returns the Well-Known Text representation.
func (c Coordinate) WKT() string {
	return fmt.Sprintf("POINT(%f %f)", c.Lon, c.Lat)
}

// Projection represents a coordinate reference system.
type Projection struct {
	SRID int    // EPSG Code
	Name string // Human-readable name
}

// Common SRID constants. Boundary datasets are reprojected to SRIDWGS84
// at load time; the others cover source datasets seen in the wild.
const (
	SRIDWGS84       = 4326  // WGS 84, the canonical CRS
	SRIDWebMercator = 3857  // Web Mercator
	SRIDUTM48S      = 32748 // WGS 84 / UTM zone 48S
	SRIDUTM49S      = 32749 // WGS 84 / UTM zone 49S
	SRIDUTM50S      = 32750 // WGS 84 / UTM zone 50S
)

// CommonProjections contains frequently used projections.
var CommonProjections = map[int]Projection{
	SRIDWGS84:       {SRID: SRIDWGS84, Name: "WGS 84"},
	SRIDWebMercator: {SRID: SRIDWebMercator, Name: "Web Mercator"},
	SRIDUTM48S:      {SRID: SRIDUTM48S, Name: "WGS 84 / UTM zone 48S"},
	SRIDUTM49S:      {SRID: SRIDUTM49S, Name: "WGS 84 / UTM zone 49S"},
	SRIDUTM50S:      {SRID: SRIDUTM50S, Name: "WGS 84 / UTM zone 50S"},
}

// IsKnownSRID returns true if the SRID is in the common projections list.
func IsKnownSRID(srid int) bool {
	_, ok := CommonProjections[srid]
	return ok
}

// Extent represents a spatial bounding box.
type Extent struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
	SRID int
}

// Contains checks if a coordinate is within the extent.
func (e Extent) Contains(c Coordinate) bool {
	return c.Lon >= e.MinX && c.Lon <= e.MaxX && c.Lat >= e.MinY && c.Lat <= e.MaxY
}

// IsValid checks if the extent has valid dimensions.
func (e Extent) IsValid() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}

// Width returns the width of the extent.
func (e Extent) Width() float64 {
	return math.Abs(e.MaxX - e.MinX)
}

// Height returns the height of the extent.
func (e Extent) Height() float64 {
	return math.Abs(e.MaxY - e.MinY)
}

// Center returns the center coordinate of the extent.
func (e Extent) Center() Coordinate {
	return Coordinate{
		Lon:  (e.MinX + e.MaxX) / 2,
		Lat:  (e.MinY + e.MaxY) / 2,
		SRID: e.SRID,
	}
}
