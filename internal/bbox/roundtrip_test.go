package bbox

import (
	"math"
	"testing"
)

func TestRoundTrip_AllFormats(t *testing.T) {
	r := NewRegistry()
	boxes := []Box{
		{XMin: 12, YMin: 34, Width: 56, Height: 78, Label: "a"},
		{XMin: 100.125, YMin: 200.5, Width: 0.75, Height: 300.333, Label: "b"},
		{XMin: 0, YMin: 0, Width: 640, Height: 480, Label: "7"},
	}

	sizes := []struct{ w, h int }{{640, 480}, {1920, 1080}, {4000, 3000}}
	for _, c := range r.Codecs() {
		for _, size := range sizes {
			c, size := c, size
			t.Run(string(c.Format()), func(t *testing.T) {
				decimals := DecimalPlacesForImage(size.w, size.h)
				tol := 2 * math.Pow(10, -float64(decimals))
				if c.Format() == FormatYOLO {
					tol *= float64(max(size.w, size.h))
				}
				back := c.Parse(c.Serialize(boxes, size.w, size.h), size.w, size.h)
				boxesClose(t, back, boxes, tol)
			})
		}
	}
}

func TestRoundTrip_MultiWordLabels(t *testing.T) {
	boxes := []Box{
		{XMin: 10, YMin: 20, Width: 30, Height: 40, Label: "First"},
		{XMin: 50, YMin: 60, Width: 70, Height: 80, Label: "Second Box"},
		{XMin: 1, YMin: 2, Width: 3, Height: 4, Label: "a b  c"},
		{XMin: 10, YMin: 20, Width: 3, Height: 4, Label: "Page 2"},
	}
	want := []Box{boxes[0], boxes[1], boxes[2].WithLabel("a b c"), boxes[3]}

	for _, c := range []Codec{COCO{}, PascalVOC{}, TesseractBox{}} {
		t.Run(string(c.Format()), func(t *testing.T) {
			once := c.Parse(c.Serialize(boxes, 0, 0), 0, 0)
			boxesClose(t, once, want, 1e-9)

			twice := c.Parse(c.Serialize(once, 0, 0), 0, 0)
			boxesClose(t, twice, want, 1e-9)
		})
	}
}

func TestRoundTrip_PreservesOrder(t *testing.T) {
	var boxes []Box
	for i := 0; i < 20; i++ {
		boxes = append(boxes, Box{XMin: float64(20 - i), YMin: float64(i), Width: 5, Height: 5, Label: string(rune('a' + i))})
	}
	for _, c := range []Codec{COCO{}, PascalVOC{}, TesseractBox{}} {
		back := c.Parse(c.Serialize(boxes, 100, 100), 100, 100)
		boxesClose(t, back, boxes, 1e-9)
	}
}
