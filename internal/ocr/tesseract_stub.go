//go:build !cgo

package ocr

import "image"

// ExtractBoxes is unavailable without cgo.
func ExtractBoxes(imagePath, language string, level Level) (*Result, error) {
	return nil, ErrUnavailable
}

// ExtractBoxesFromRegion is unavailable without cgo.
func ExtractBoxesFromRegion(img image.Image, region image.Rectangle, language string, level Level) (*Result, error) {
	return nil, ErrUnavailable
}

// GetInfo reports that OCR is not compiled in.
func GetInfo() Info {
	return Info{}
}
