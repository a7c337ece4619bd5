//go:build cgo

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

func iteratorLevel(level Level) (gosseract.PageIteratorLevel, error) {
	switch level {
	case LevelSymbol:
		return gosseract.RIL_SYMBOL, nil
	case LevelWord, "":
		return gosseract.RIL_WORD, nil
	case LevelLine:
		return gosseract.RIL_TEXTLINE, nil
	}
	return 0, fmt.Errorf("unknown OCR level %q", level)
}

// recognize runs Tesseract over the image already set on client.
func recognize(client *gosseract.Client, language string, level Level, offset image.Point) (*Result, error) {
	ril, err := iteratorLevel(level)
	if err != nil {
		return nil, err
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(ril)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	result := &Result{
		Text:     text,
		Language: language,
		Level:    level,
		Regions:  make([]TextRegion, 0, len(boxes)),
	}
	for _, b := range boxes {
		if region, ok := newRegion(b.Word, b.Confidence, b.Box, offset); ok {
			result.Regions = append(result.Regions, region)
		}
	}
	return result, nil
}

// ExtractBoxes performs OCR on an image file and returns one labeled box per
// recognized element at the given level.
//
// language is a Tesseract language code ("eng", "deu", ...); its training
// data must be installed.
func ExtractBoxes(imagePath, language string, level Level) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return recognize(client, language, level, image.Point{})
}

// ExtractBoxesFromRegion performs OCR on one rectangle of img. Returned boxes
// are in img coordinates.
func ExtractBoxesFromRegion(img image.Image, region image.Rectangle, language string, level Level) (*Result, error) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("OCR region %v is outside the image", region)
	}

	cropped := imaging.Crop(img, region)
	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return recognize(client, language, level, region.Min)
}

// GetInfo reports the linked Tesseract version.
func GetInfo() Info {
	return Info{Available: true, Version: gosseract.Version()}
}
