package domain

import (
	"testing"
)

func TestNewWGS84Coordinate(t *testing.T) {
	c := NewWGS84Coordinate(106.8456, -6.2088)

	if c.Lon != 106.8456 {
		t.Errorf("expected Lon=106.8456, got %f", c.Lon)
	}
	if c.Lat != -6.2088 {
		t.Errorf("expected Lat=-6.2088, got %f", c.Lat)
	}
	if c.SRID != SRIDWGS84 {
		t.Errorf("expected SRID=%d, got %d", SRIDWGS84, c.SRID)
	}
}

func TestCoordinateIsNoGeotag(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{
			name:  "sentinel",
			coord: NoGeotag,
			want:  true,
		},
		{
			name:  "zero value",
			coord: Coordinate{},
			want:  true,
		},
		{
			name:  "real coordinate",
			coord: NewWGS84Coordinate(106.8456, -6.2088),
			want:  false,
		},
		{
			name:  "on the equator but not prime meridian",
			coord: NewWGS84Coordinate(109.3425, 0),
			want:  false,
		},
		{
			name:  "on the prime meridian but not equator",
			coord: NewWGS84Coordinate(0, 51.4778),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.IsNoGeotag(); got != tt.want {
				t.Errorf("IsNoGeotag() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{
			name:    "valid WGS84 coordinate",
			coord:   NewWGS84Coordinate(106.8456, -6.2088),
			wantErr: false,
		},
		{
			name:    "valid WGS84 at origin",
			coord:   NewWGS84Coordinate(0, 0),
			wantErr: false,
		},
		{
			name:    "valid WGS84 at max bounds",
			coord:   NewWGS84Coordinate(180, 90),
			wantErr: false,
		},
		{
			name:    "valid WGS84 at min bounds",
			coord:   NewWGS84Coordinate(-180, -90),
			wantErr: false,
		},
		{
			name:    "invalid longitude too high",
			coord:   NewWGS84Coordinate(181, -6.2),
			wantErr: true,
		},
		{
			name:    "invalid longitude too low",
			coord:   NewWGS84Coordinate(-181, -6.2),
			wantErr: true,
		},
		{
			name:    "invalid latitude too high",
			coord:   NewWGS84Coordinate(106.8, 91),
			wantErr: true,
		},
		{
			name:    "invalid latitude too low",
			coord:   NewWGS84Coordinate(106.8, -91),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCoordinateRound6(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantLon float64
		wantLat float64
	}{
		{
			name:    "rounds down",
			coord:   NewWGS84Coordinate(106.84561234567, -6.20881234567),
			wantLon: 106.845612,
			wantLat: -6.208812,
		},
		{
			name:    "rounds up",
			coord:   NewWGS84Coordinate(106.8456789, -6.2088999),
			wantLon: 106.845679,
			wantLat: -6.2089,
		},
		{
			name:    "already exact",
			coord:   NewWGS84Coordinate(106.5, -6.25),
			wantLon: 106.5,
			wantLat: -6.25,
		},
		{
			name:    "sentinel unchanged",
			coord:   NoGeotag,
			wantLon: 0,
			wantLat: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coord.Round6()
			if got.Lon != tt.wantLon {
				t.Errorf("Round6() Lon = %v, want %v", got.Lon, tt.wantLon)
			}
			if got.Lat != tt.wantLat {
				t.Errorf("Round6() Lat = %v, want %v", got.Lat, tt.wantLat)
			}
		})
	}
}

func TestCoordinateWKT(t *testing.T) {
	c := NewWGS84Coordinate(106.8456, -6.2088)
	want := "POINT(106.845600 -6.208800)"
	if got := c.WKT(); got != want {
		t.Errorf("WKT() = %q, want %q", got, want)
	}
}

func TestIsKnownSRID(t *testing.T) {
	if !IsKnownSRID(SRIDWGS84) {
		t.Error("SRIDWGS84 should be known")
	}
	if !IsKnownSRID(SRIDUTM48S) {
		t.Error("SRIDUTM48S should be known")
	}
	if IsKnownSRID(99999) {
		t.Error("99999 should not be known")
	}
}

func TestExtentContains(t *testing.T) {
	// Roughly Jakarta
	e := Extent{MinX: 106.6, MinY: -6.4, MaxX: 107.0, MaxY: -6.0, SRID: SRIDWGS84}

	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{
			name:  "inside",
			coord: NewWGS84Coordinate(106.8456, -6.2088),
			want:  true,
		},
		{
			name:  "on boundary",
			coord: NewWGS84Coordinate(106.6, -6.4),
			want:  true,
		},
		{
			name:  "outside west",
			coord: NewWGS84Coordinate(106.5, -6.2),
			want:  false,
		},
		{
			name:  "outside north",
			coord: NewWGS84Coordinate(106.8, -5.9),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Contains(tt.coord); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtentDimensions(t *testing.T) {
	e := Extent{MinX: 106.6, MinY: -6.4, MaxX: 107.0, MaxY: -6.0, SRID: SRIDWGS84}

	if !e.IsValid() {
		t.Error("extent should be valid")
	}

	if w := e.Width(); w < 0.399 || w > 0.401 {
		t.Errorf("Width() = %f, want ~0.4", w)
	}
	if h := e.Height(); h < 0.399 || h > 0.401 {
		t.Errorf("Height() = %f, want ~0.4", h)
	}

	center := e.Center()
	if center.Lon < 106.799 || center.Lon > 106.801 {
		t.Errorf("Center() Lon = %f, want ~106.8", center.Lon)
	}

	invalid := Extent{MinX: 10, MinY: 10, MaxX: 5, MaxY: 5}
	if invalid.IsValid() {
		t.Error("inverted extent should be invalid")
	}
}
