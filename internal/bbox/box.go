package bbox

import (
	"errors"
	"fmt"
	"math"
)

// Box is an axis-aligned rectangle annotation in pixel coordinates.
//
// An empty Label means the box is unlabeled. Labels may contain interior
// spaces; codecs preserve them verbatim where the format allows it.
type Box struct {
	XMin   float64 `json:"x_min"`
	YMin   float64 `json:"y_min"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label,omitempty"`
}

// FromCorners builds a Box from its top-left and bottom-right corners.
// Inverted spans are clamped to zero.
func FromCorners(xMin, yMin, xMax, yMax float64, label string) Box {
	return Box{
		XMin:   xMin,
		YMin:   yMin,
		Width:  math.Max(0, xMax-xMin),
		Height: math.Max(0, yMax-yMin),
		Label:  label,
	}
}

// XMax returns the right edge of the box.
func (b Box) XMax() float64 { return b.XMin + b.Width }

// YMax returns the bottom edge of the box.
func (b Box) YMax() float64 { return b.YMin + b.Height }

// HasLabel reports whether the box carries a label.
func (b Box) HasLabel() bool { return b.Label != "" }

// WithLabel returns a copy of b with its label replaced.
func (b Box) WithLabel(label string) Box {
	b.Label = label
	return b
}

// Format identifies one of the supported on-disk annotation conventions.
type Format string

const (
	FormatCOCO         Format = "coco"
	FormatPascalVOC    Format = "pascal_voc"
	FormatYOLO         Format = "yolo"
	FormatTesseractBox Format = "tesseract_box"
)

// ErrUnknownFormat is returned by ParseFormat for ids outside the supported set.
var ErrUnknownFormat = errors.New("unknown bbox format")

// Formats returns every supported format in detection priority order.
func Formats() []Format {
	return []Format{FormatTesseractBox, FormatYOLO, FormatPascalVOC, FormatCOCO}
}

// ParseFormat validates a format id such as "pascal_voc".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCOCO, FormatPascalVOC, FormatYOLO, FormatTesseractBox:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	_, err := ParseFormat(string(f))
	return err == nil
}

func (f Format) String() string { return string(f) }
