package imaging

import (
	"fmt"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
)

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RegionColorResult describes the mean color under a box.
type RegionColorResult struct {
	Hex        string   `json:"hex"` // "#rrggbb"
	RGB        RGBColor `json:"rgb"`
	HSL        HSLColor `json:"hsl"`
	PixelCount int      `json:"pixel_count"`
	Region     Rect     `json:"region"`
}

// RegionColor averages the pixels covered by a box.
//
// Averaging happens in sRGB space with 16-bit precision per channel; the
// result is reported as hex, 8-bit RGB and HSL. The box is clipped to the
// image, and an error is returned when nothing remains.
//
// Useful for checking that a label matches what a box covers, e.g. that a
// box labeled "red light" actually sits on red pixels.
func RegionColor(img image.Image, b bbox.Box) (*RegionColorResult, error) {
	rect := BoxRect(b, 0, img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("box (%.2f,%.2f %.2fx%.2f) does not overlap image bounds %v",
			b.XMin, b.YMin, b.Width, b.Height, img.Bounds())
	}

	var sumR, sumG, sumB float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sumR += float64(r)
			sumG += float64(g)
			sumB += float64(b)
		}
	}
	count := rect.Dx() * rect.Dy()
	n := float64(count) * 0xffff

	mean := colorful.Color{R: sumR / n, G: sumG / n, B: sumB / n}.Clamped()
	r8, g8, b8 := mean.RGB255()
	h, s, l := mean.Hsl()

	return &RegionColorResult{
		Hex: mean.Hex(),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
		PixelCount: count,
		Region:     Rect{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y},
	}, nil
}
