package domain

import (
	"testing"
)

func TestFlagsFromBoxes(t *testing.T) {
	tests := []struct {
		name  string
		boxes []Box
		want  map[string]bool
	}{
		{
			name:  "no boxes",
			boxes: nil,
			want:  map[string]bool{},
		},
		{
			name: "single match",
			boxes: []Box{
				{Label: "Indihome", Confidence: 0.9},
			},
			want: map[string]bool{"Indihome": true},
		},
		{
			name: "case-insensitive match",
			boxes: []Box{
				{Label: "indihome", Confidence: 0.9},
				{Label: "MYREPUBLIC", Confidence: 0.4},
			},
			want: map[string]bool{"Indihome": true, "MyRepublic": true},
		},
		{
			name: "multiple boxes same class flag once",
			boxes: []Box{
				{Label: "cbn", Confidence: 0.2},
				{Label: "CBN", Confidence: 0.95},
				{Label: "Cbn", Confidence: 0.5},
			},
			want: map[string]bool{"CBN": true},
		},
		{
			name: "low confidence still flags",
			boxes: []Box{
				{Label: "Lintasarta", Confidence: 0.01},
			},
			want: map[string]bool{"Lintasarta": true},
		},
		{
			name: "unknown label ignored",
			boxes: []Box{
				{Label: "Telkomsel", Confidence: 0.99},
			},
			want: map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := FlagsFromBoxes(tt.boxes)

			// Every class must be present in the flag set.
			if len(flags) != len(Classes) {
				t.Fatalf("expected %d flags, got %d", len(Classes), len(flags))
			}

			for _, class := range Classes {
				want := tt.want[class]
				if flags[class] != want {
					t.Errorf("flag for %s = %v, want %v", class, flags[class], want)
				}
			}
		})
	}
}

func TestKnownClass(t *testing.T) {
	tests := []struct {
		label     string
		wantClass string
		wantOK    bool
	}{
		{"Indihome", "Indihome", true},
		{"indihome", "Indihome", true},
		{"MYREPUBLIC", "MyRepublic", true},
		{"cbn", "CBN", true},
		{"Telkomsel", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			class, ok := KnownClass(tt.label)
			if ok != tt.wantOK {
				t.Fatalf("KnownClass(%q) ok = %v, want %v", tt.label, ok, tt.wantOK)
			}
			if class != tt.wantClass {
				t.Errorf("KnownClass(%q) = %q, want %q", tt.label, class, tt.wantClass)
			}
		})
	}
}

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	if len(flags) != len(Classes) {
		t.Fatalf("expected %d flags, got %d", len(Classes), len(flags))
	}
	for _, class := range Classes {
		if flags[class] {
			t.Errorf("flag for %s should start false", class)
		}
	}
}

func TestFlagsClone(t *testing.T) {
	flags := NewFlags()
	flags["Indosat"] = true

	clone := flags.Clone()
	clone["CBN"] = true

	if !flags["Indosat"] {
		t.Error("clone should preserve set flags")
	}
	if flags["CBN"] {
		t.Error("mutating the clone must not affect the original")
	}
}

func TestFlagsOrdered(t *testing.T) {
	flags := NewFlags()
	flags["Indihome"] = true
	flags["CBN"] = true

	ordered := flags.Ordered()
	if len(ordered) != len(Classes) {
		t.Fatalf("expected %d values, got %d", len(Classes), len(ordered))
	}

	// Classes order: Indihome, Indosat, MyRepublic, Lintasarta, CBN
	want := []bool{true, false, false, false, true}
	for i, v := range want {
		if ordered[i] != v {
			t.Errorf("ordered[%d] = %v, want %v", i, ordered[i], v)
		}
	}
}
