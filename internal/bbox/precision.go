package bbox

import (
	"strconv"
)

const (
	decimalPlacesFallback = 2
	decimalPlacesCap      = 8
)

// DecimalPlacesForImage returns how many fractional digits serializers emit
// for an image of the given size.
//
// The count equals the number of digits in the largest dimension, capped at 8,
// so a 1920x1080 image gets 4 and a 100x50 image gets 3. Unknown dimensions
// (both zero or negative) fall back to 2.
func DecimalPlacesForImage(imgWidth, imgHeight int) int {
	maxDim := max(0, imgWidth, imgHeight)
	if maxDim == 0 {
		return decimalPlacesFallback
	}
	return min(decimalPlacesCap, len(strconv.Itoa(maxDim)))
}

// FormatCoord renders value in fixed-point notation with exactly decimals
// fractional digits.
func FormatCoord(value float64, decimals int) string {
	return strconv.FormatFloat(value, 'f', decimals, 64)
}
