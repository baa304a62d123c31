package domain

import (
	"image"
	"strings"
)

// Box represents one detected bounding box in source-image pixel
// coordinates, as reported by the inference service.
type Box struct {
	Label      string  // Class label from the model vocabulary
	Confidence float64 // Model confidence score
	X0         int     // Left
	Y0         int     // Top
	X1         int     // Right
	Y1         int     // Bottom
}

// Inference is the raw output of one model invocation.
type Inference struct {
	Boxes []Box    // Detected boxes, any confidence
	Names []string // The model's class vocabulary
}

// Detection is the reduced, record-ready result of one model invocation:
// a per-class flag vector plus the rendered overlay buffer.
type Detection struct {
	Flags   Flags
	Overlay *image.NRGBA
}

// FlagsFromBoxes reduces raw boxes to per-class booleans. A class is flagged
// iff at least one box carries its label, matched case-insensitively,
// regardless of confidence or box count.
func FlagsFromBoxes(boxes []Box) Flags {
	seen := make(map[string]bool, len(boxes))
	for _, b := range boxes {
		seen[strings.ToLower(b.Label)] = true
	}

	flags := NewFlags()
	for _, class := range Classes {
		if seen[strings.ToLower(class)] {
			flags[class] = true
		}
	}
	return flags
}

// KnownClass reports whether the label matches one of the fixed classes,
// case-insensitively, and returns the canonical class name.
func KnownClass(label string) (string, bool) {
	for _, class := range Classes {
		if strings.EqualFold(class, label) {
			return class, true
		}
	}
	return "", false
}
