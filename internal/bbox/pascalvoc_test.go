package bbox

import "testing"

func TestPascalVOC_Parse(t *testing.T) {
	got := PascalVOC{}.Parse("10 20 40 60", 0, 0)
	boxesClose(t, got, []Box{{XMin: 10, YMin: 20, Width: 30, Height: 40}}, 0)

	got = PascalVOC{}.Parse("10 20 40 60 traffic light\n40 60 10 20\nx 1 2 3", 0, 0)
	boxesClose(t, got, []Box{
		{XMin: 10, YMin: 20, Width: 30, Height: 40, Label: "traffic light"},
		{XMin: 40, YMin: 60, Width: 0, Height: 0},
	}, 0)
}

func TestPascalVOC_Serialize(t *testing.T) {
	boxes := []Box{{XMin: 10, YMin: 20, Width: 30, Height: 40, Label: "car"}}

	got := PascalVOC{}.Serialize(boxes, 0, 0)
	if want := "10.00 20.00 40.00 60.00 car"; got != want {
		t.Errorf("Serialize: got %q, want %q", got, want)
	}

	got = PascalVOC{}.Serialize(boxes, 100, 50)
	if want := "10.000 20.000 40.000 60.000 car"; got != want {
		t.Errorf("Serialize 100x50: got %q, want %q", got, want)
	}
}

func TestPascalVOC_RoundTrip(t *testing.T) {
	boxes := []Box{
		{XMin: 10, YMin: 20, Width: 30, Height: 40},
		{XMin: 0.5, YMin: 1.25, Width: 2, Height: 3, Label: "Second Box"},
	}
	back := PascalVOC{}.Parse(PascalVOC{}.Serialize(boxes, 640, 480), 640, 480)
	boxesClose(t, back, boxes, 1e-9)
}

func TestPascalVOC_Detect(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"ordered corners", "10 20 40 60\n0 0 10 10", true},
		{"decimals", "10.5 20.5 40.25 60.75", true},
		{"x_max equal x_min", "10 20 10 60", false},
		{"width height lines", "10 20 5 5\n50 60 5 5", false},
		{"non numeric", "a b c d", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (PascalVOC{}).Detect(tt.content); got != tt.want {
				t.Errorf("Detect(%q): got %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}
