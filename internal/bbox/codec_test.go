package bbox

import (
	"math"
	"testing"
)

// boxesClose compares boxes coordinate by coordinate within tol and labels
// exactly.
func boxesClose(t *testing.T, got, want []Box, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("box count: got %d, want %d (%+v)", len(got), len(want), got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if math.Abs(g.XMin-w.XMin) > tol || math.Abs(g.YMin-w.YMin) > tol ||
			math.Abs(g.Width-w.Width) > tol || math.Abs(g.Height-w.Height) > tol {
			t.Errorf("box %d: got %+v, want %+v (tol %g)", i, g, w, tol)
		}
		if g.Label != w.Label {
			t.Errorf("box %d label: got %q, want %q", i, g.Label, w.Label)
		}
	}
}

func TestFromCorners_ClampsInvertedSpans(t *testing.T) {
	b := FromCorners(40, 60, 10, 20, "x")
	if b.Width != 0 || b.Height != 0 {
		t.Errorf("inverted corners: got %vx%v, want 0x0", b.Width, b.Height)
	}
	if b.XMin != 40 || b.YMin != 60 {
		t.Errorf("origin: got (%v,%v), want (40,60)", b.XMin, b.YMin)
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(string(f))
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", f, err)
		}
		if got != f {
			t.Errorf("ParseFormat(%q): got %q", f, got)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat should reject unknown ids")
	}
	if Format("voc").Valid() {
		t.Error("Valid should be false for unknown ids")
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("  a 1 \r\n\r\n\tb 2\n\n  \nc 3  ")
	want := []string{"a 1", "b 2", "c 3"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseFinite(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want float64
	}{
		{"10", true, 10},
		{"-2.5", true, -2.5},
		{"1e3", true, 1000},
		{".5", true, 0.5},
		{"inf", false, 0},
		{"-Infinity", false, 0},
		{"NaN", false, 0},
		{"person", false, 0},
		{"1,5", false, 0},
		{"0x1p3", false, 0},
		{"-0X10", false, 0},
	}

	for _, tt := range tests {
		got, ok := parseFinite(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseFinite(%q): got (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMajority(t *testing.T) {
	numeric := func(fields []string) bool { return len(fields) > 0 && isFinite(fields[0]) }

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"blank lines only", "\n \n", false},
		{"all match", "1\n2", true},
		{"exactly half", "1\nx", true},
		{"two of three", "1\n2\nx", true},
		{"one of three", "1\nx\ny", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := majority(tt.content, numeric); got != tt.want {
				t.Errorf("majority(%q): got %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}
