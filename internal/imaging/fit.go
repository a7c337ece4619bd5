package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"

	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
)

// DefaultFitThreshold is the luminance below which a pixel counts as
// foreground when fitting a box to content.
const DefaultFitThreshold uint8 = 128

// FitResult describes a box snapped to its content.
type FitResult struct {
	Box bbox.Box `json:"box"`

	// Changed is false when no foreground was found and the box was kept.
	Changed bool `json:"changed"`

	// ForegroundPixels is the number of pixels under the threshold.
	ForegroundPixels int `json:"foreground_pixels"`
}

// FitToContent shrinks a box to the tight bounds of the dark pixels it
// covers.
//
// The region under the box is converted to grayscale and thresholded; pixels
// with luminance below threshold are foreground. The returned box keeps the
// original label. When the region holds no foreground the original box is
// returned with Changed set to false.
//
// This is meant for snapping a roughly drawn box onto a glyph or object on
// a light background, the typical case for Tesseract box files.
func FitToContent(img image.Image, b bbox.Box, threshold uint8) (*FitResult, error) {
	rect := BoxRect(b, 0, img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("box (%.2f,%.2f %.2fx%.2f) does not overlap image bounds %v",
			b.XMin, b.YMin, b.Width, b.Height, img.Bounds())
	}

	region := transform.Crop(img, rect)
	mask := segment.Threshold(effect.Grayscale(region), threshold)

	mb := mask.Bounds()
	minX, minY := mb.Max.X, mb.Max.Y
	maxX, maxY := mb.Min.X-1, mb.Min.Y-1
	count := 0
	for y := mb.Min.Y; y < mb.Max.Y; y++ {
		for x := mb.Min.X; x < mb.Max.X; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				continue
			}
			count++
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}

	if count == 0 {
		return &FitResult{Box: b}, nil
	}

	// Mask coordinates are relative to the cropped region.
	offX := rect.Min.X - mb.Min.X
	offY := rect.Min.Y - mb.Min.Y
	fitted := bbox.FromCorners(
		float64(minX+offX),
		float64(minY+offY),
		float64(maxX+offX+1),
		float64(maxY+offY+1),
		b.Label,
	)
	return &FitResult{
		Box:              fitted,
		Changed:          fitted != b,
		ForegroundPixels: count,
	}, nil
}
