package detector

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/signumlab/signum/internal/domain"
)

func testImageBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRenderOverlay(t *testing.T) {
	data := testImageBytes(t, 200, 150)

	boxes := []domain.Box{
		{Label: "Indihome", Confidence: 0.9, X0: 20, Y0: 30, X1: 120, Y1: 100},
		{Label: "Telkomsel", Confidence: 0.5, X0: 10, Y0: 10, X1: 40, Y1: 40},
	}

	overlay, err := renderOverlay(data, boxes)
	if err != nil {
		t.Fatalf("renderOverlay() error = %v", err)
	}

	if overlay.Bounds().Dx() != 200 || overlay.Bounds().Dy() != 150 {
		t.Errorf("overlay bounds = %v", overlay.Bounds())
	}

	// The box edge must actually be painted.
	r, g, b, _ := overlay.At(20, 30).RGBA()
	if r == 0 && g == 0 && b == 0 {
		t.Error("expected painted pixel at box corner")
	}
}

func TestRenderOverlayBoxOutOfBounds(t *testing.T) {
	data := testImageBytes(t, 50, 50)

	// Boxes beyond the image must clip, not panic.
	boxes := []domain.Box{
		{Label: "CBN", Confidence: 0.8, X0: -10, Y0: -10, X1: 100, Y1: 100},
		{Label: "Indosat", Confidence: 0.7, X0: 45, Y0: 45, X1: 45, Y1: 45},
	}

	overlay, err := renderOverlay(data, boxes)
	if err != nil {
		t.Fatalf("renderOverlay() error = %v", err)
	}
	if overlay == nil {
		t.Fatal("expected overlay")
	}
}

func TestRenderOverlayBadImage(t *testing.T) {
	if _, err := renderOverlay([]byte("not an image"), nil); err == nil {
		t.Error("expected error for undecodable image")
	}
}

func TestEncodeOverlay(t *testing.T) {
	overlay := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	for _, format := range []string{"jpeg", "jpg", "png", "webp", ""} {
		var buf bytes.Buffer
		if err := EncodeOverlay(&buf, overlay, format); err != nil {
			t.Errorf("EncodeOverlay(%q) error = %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("EncodeOverlay(%q) wrote no bytes", format)
		}
	}

	var buf bytes.Buffer
	if err := EncodeOverlay(&buf, overlay, "tiff"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
