package domain

import (
	"testing"
)

func TestNewImageRecord(t *testing.T) {
	flags := NewFlags()
	flags["Indosat"] = true

	rec := NewImageRecord(3, "/photos/site/IMG_0042.jpg",
		NewWGS84Coordinate(106.84561234567, -6.20881234567),
		"Menteng", flags, nil)

	if rec.ID != 3 {
		t.Errorf("expected ID=3, got %d", rec.ID)
	}
	if rec.Filename != "IMG_0042.jpg" {
		t.Errorf("expected Filename=IMG_0042.jpg, got %s", rec.Filename)
	}
	if rec.Path != "/photos/site/IMG_0042.jpg" {
		t.Errorf("unexpected Path %s", rec.Path)
	}
	if rec.Longitude != 106.845612 {
		t.Errorf("expected Longitude rounded to 106.845612, got %f", rec.Longitude)
	}
	if rec.Latitude != -6.208812 {
		t.Errorf("expected Latitude rounded to -6.208812, got %f", rec.Latitude)
	}
	if rec.Subdistrict != "Menteng" {
		t.Errorf("expected Subdistrict=Menteng, got %s", rec.Subdistrict)
	}
	if !rec.Detections["Indosat"] {
		t.Error("expected Indosat flag set")
	}
}

func TestImageRecordHasGeotag(t *testing.T) {
	with := NewImageRecord(0, "a.jpg", NewWGS84Coordinate(106.8, -6.2), SubdistrictUnknown, NewFlags(), nil)
	without := NewImageRecord(1, "b.jpg", NoGeotag, SubdistrictUnknown, NewFlags(), nil)

	if !with.HasGeotag() {
		t.Error("record with coordinates should have geotag")
	}
	if without.HasGeotag() {
		t.Error("record with sentinel coordinates should not have geotag")
	}
}

func TestImageRecordSnapshot(t *testing.T) {
	flags := NewFlags()
	flags["MyRepublic"] = true

	rec := NewImageRecord(7, "/photos/IMG_0001.jpg",
		NewWGS84Coordinate(106.8456, -6.2088), "Tebet", flags, nil)

	row := rec.Snapshot()

	if row.ID != 7 {
		t.Errorf("expected ID=7, got %d", row.ID)
	}
	if row.Filename != "IMG_0001.jpg" {
		t.Errorf("unexpected Filename %s", row.Filename)
	}
	if row.Subdistrict != "Tebet" {
		t.Errorf("unexpected Subdistrict %s", row.Subdistrict)
	}
	if len(row.Flags) != len(Classes) {
		t.Fatalf("expected %d flags, got %d", len(Classes), len(row.Flags))
	}
	// MyRepublic is the third class.
	if !row.Flags[2] {
		t.Error("expected MyRepublic flag set in snapshot")
	}
	if row.Flags[0] || row.Flags[1] || row.Flags[3] || row.Flags[4] {
		t.Error("unexpected flags set in snapshot")
	}
}

func TestSubdistrictSentinels(t *testing.T) {
	// The sentinels are part of the export contract; guard their values.
	if SubdistrictUnknown != "Unknown" {
		t.Errorf("unexpected SubdistrictUnknown %q", SubdistrictUnknown)
	}
	if SubdistrictOutside != "Outside Area" {
		t.Errorf("unexpected SubdistrictOutside %q", SubdistrictOutside)
	}
	if SubdistrictError != "Error" {
		t.Errorf("unexpected SubdistrictError %q", SubdistrictError)
	}
}
