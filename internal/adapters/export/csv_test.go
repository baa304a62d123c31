package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/signumlab/signum/internal/domain"
)

func TestCSVWriterHeader(t *testing.T) {
	w := NewCSVWriter()

	header := w.Header()
	want := []string{"id", "image_name", "longitude", "latitude", "subdistrict",
		"Indihome", "Indosat", "MyRepublic", "Lintasarta", "CBN"}

	if len(header) != len(want) {
		t.Fatalf("header length = %d, want %d", len(header), len(want))
	}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want[i])
		}
	}
}

func TestCSVWriterWrite(t *testing.T) {
	rows := []domain.SnapshotRow{
		{
			ID: 0, Filename: "IMG_0001.jpg",
			Longitude: 106.8456, Latitude: -6.2088,
			Subdistrict: "Menteng",
			Flags:       []bool{true, false, false, false, true},
		},
		{
			ID: 1, Filename: "IMG_0002.jpg",
			Longitude: 0, Latitude: 0,
			Subdistrict: domain.SubdistrictUnknown,
			Flags:       []bool{false, false, false, false, false},
		},
	}

	var buf bytes.Buffer
	if err := NewCSVWriter().Write(&buf, rows); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	parsed, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}

	if len(parsed) != 3 { // header + 2 rows
		t.Fatalf("expected 3 lines, got %d", len(parsed))
	}

	first := parsed[1]
	if first[0] != "0" || first[1] != "IMG_0001.jpg" {
		t.Errorf("unexpected identity columns %v", first[:2])
	}
	if first[2] != "106.845600" || first[3] != "-6.208800" {
		t.Errorf("unexpected coordinate columns %v", first[2:4])
	}
	if first[4] != "Menteng" {
		t.Errorf("unexpected subdistrict %q", first[4])
	}
	if first[5] != "true" || first[9] != "true" || first[6] != "false" {
		t.Errorf("unexpected flag columns %v", first[5:])
	}

	second := parsed[2]
	if second[4] != "Unknown" {
		t.Errorf("unexpected sentinel subdistrict %q", second[4])
	}
}

func TestCSVWriterEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVWriter().Write(&buf, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected header only, got %d lines", len(lines))
	}
}

func TestCSVWriterDeterministic(t *testing.T) {
	rows := []domain.SnapshotRow{
		{ID: 0, Filename: "a.jpg", Subdistrict: "Tebet",
			Flags: []bool{false, true, false, false, false}},
	}

	var first, second bytes.Buffer
	w := NewCSVWriter()
	if err := w.Write(&first, rows); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(&second, rows); err != nil {
		t.Fatal(err)
	}

	if first.String() != second.String() {
		t.Error("repeated export of the same snapshot must be identical")
	}
}
