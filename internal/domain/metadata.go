package domain

import "time"

// Metadata contains boundary dataset metadata.
type Metadata struct {
	Title       string            // Title
	Description string            // Description
	Creator     string            // Creator/Author (e.g. the publishing agency)
	CreatedAt   time.Time         // Creation date
	Version     string            // Version string
	Keywords    []string          // Keywords/Tags
	Custom      map[string]string // Custom metadata fields
}

// HasKeyword checks if a keyword is present.
func (m *Metadata) HasKeyword(keyword string) bool {
	for _, k := range m.Keywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// GetCustom returns a custom metadata value.
func (m *Metadata) GetCustom(key string) (string, bool) {
	if m.Custom == nil {
		return "", false
	}
	v, ok := m.Custom[key]
	return v, ok
}

// License contains license information for the boundary dataset.
type License struct {
	Name        string // License name (e.g., "CC BY 4.0")
	URL         string // Link to the license text
	Attribution string // Attribution text to display
}

// IsEmpty returns true if no license information is set.
func (l *License) IsEmpty() bool {
	return l.Name == "" && l.URL == "" && l.Attribution == ""
}

// String returns the attribution text or license name.
func (l *License) String() string {
	if l.Attribution != "" {
		return l.Attribution
	}
	return l.Name
}

// LookupResult represents the outcome of one point-in-polygon lookup.
type LookupResult struct {
	Subdistrict string        // Resolved label or a subdistrict sentinel
	FID         int64         // Matching feature id (0 when unmatched)
	Matched     bool          // True if a polygon contained the point
	LookupTime  time.Duration // Lookup execution time
}
