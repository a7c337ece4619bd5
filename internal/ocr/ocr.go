package ocr

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/bbox-editor-mcp/internal/bbox"
)

// ErrUnavailable is returned when the binary was built without Tesseract
// support.
var ErrUnavailable = errors.New("tesseract OCR is not available in this build")

// Level selects the granularity of recognized boxes.
type Level string

const (
	// LevelSymbol yields one box per character, the layout of Tesseract
	// training .box files.
	LevelSymbol Level = "symbol"

	// LevelWord yields one box per word.
	LevelWord Level = "word"

	// LevelLine yields one box per text line.
	LevelLine Level = "line"
)

// ParseLevel validates a level name. The empty string selects LevelWord.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelWord:
		return LevelWord, nil
	case LevelSymbol, "char", "character":
		return LevelSymbol, nil
	case LevelLine, "textline":
		return LevelLine, nil
	}
	return "", fmt.Errorf("unknown OCR level %q (want symbol, word or line)", s)
}

// TextRegion is one recognized element with its location.
type TextRegion struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Box is the element's bounding box in image pixel coordinates, labeled
	// with Text.
	Box bbox.Box `json:"box"`
}

// Result contains the recognized elements of an image or image region.
type Result struct {
	// Text is all recognized text with Tesseract's spacing and newlines.
	Text string `json:"text"`

	// Language is the Tesseract language used.
	Language string `json:"language"`

	// Level is the granularity of Regions.
	Level Level `json:"level"`

	// Regions lists the recognized elements in reading order.
	Regions []TextRegion `json:"regions"`
}

// Boxes returns the labeled boxes of all regions, in order.
func (r *Result) Boxes() []bbox.Box {
	boxes := make([]bbox.Box, len(r.Regions))
	for i, region := range r.Regions {
		boxes[i] = region.Box
	}
	return boxes
}

// FilterConfidence drops regions whose confidence is below threshold.
func (r *Result) FilterConfidence(threshold float64) {
	kept := r.Regions[:0]
	for _, region := range r.Regions {
		if region.Confidence >= threshold {
			kept = append(kept, region)
		}
	}
	r.Regions = kept
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// newRegion converts a Tesseract rectangle into a labeled box. offset shifts
// the rectangle from crop coordinates back into image coordinates.
// Tesseract reports confidence as a percentage.
func newRegion(text string, confidence float64, r image.Rectangle, offset image.Point) (TextRegion, bool) {
	text = strings.TrimSpace(text)
	if text == "" || r.Empty() {
		return TextRegion{}, false
	}
	r = r.Add(offset)
	return TextRegion{
		Text:       text,
		Confidence: confidence / 100.0,
		Box: bbox.FromCorners(
			float64(r.Min.X), float64(r.Min.Y),
			float64(r.Max.X), float64(r.Max.Y),
			text,
		),
	}, true
}
