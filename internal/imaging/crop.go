package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// Region is the pixel rectangle actually cropped, after padding and
	// clamping to the image.
	Region Rect `json:"region"`
}

// Rect is an integer pixel rectangle; (X1,Y1) inclusive, (X2,Y2) exclusive.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// BoxRect converts a fractional box to the smallest enclosing pixel
// rectangle grown by padding on every side and clipped to bounds. The result
// is empty when the box lies outside the image.
func BoxRect(b bbox.Box, padding int, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(math.Floor(b.XMin))-padding,
		int(math.Floor(b.YMin))-padding,
		int(math.Ceil(b.XMax()))+padding,
		int(math.Ceil(b.YMax()))+padding,
	)
	return r.Intersect(bounds)
}

// CropBox extracts the region under a box as a base64-encoded PNG.
//
// Parameters:
//   - img: The source image.
//   - b: The box to crop, in pixel coordinates.
//   - padding: Extra pixels kept around the box on every side.
//   - scale: Optional resize factor applied after cropping; values <= 0 or
//     1.0 keep the original size.
//
// Returns an error when the box does not overlap the image.
func CropBox(img image.Image, b bbox.Box, padding int, scale float64) (*CropResult, error) {
	if padding < 0 {
		padding = 0
	}
	rect := BoxRect(b, padding, img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("box (%.2f,%.2f %.2fx%.2f) does not overlap image bounds %v",
			b.XMin, b.YMin, b.Width, b.Height, img.Bounds())
	}

	cropped := imaging.Crop(img, rect)

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Region:      Rect{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y},
	}, nil
}
