package bbox

import (
	"regexp"
)

// digitsOnly is stricter than what Parse accepts: no sign and no
// decimal point.
var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// COCO handles "x_min y_min width height [label]" lines in pixels.
type COCO struct{}

// Format implements Codec.
func (COCO) Format() Format { return FormatCOCO }

// Parse implements Codec. Image dimensions are not needed.
func (COCO) Parse(content string, _, _ int) []Box {
	return parseLines(content, func(fields []string) (Box, bool) {
		if len(fields) < 4 {
			return Box{}, false
		}
		v, ok := parseFour(fields[:4])
		if !ok {
			return Box{}, false
		}
		return Box{
			XMin:   v[0],
			YMin:   v[1],
			Width:  v[2],
			Height: v[3],
			Label:  joinLabel(fields[4:]),
		}, true
	})
}

// Serialize implements Codec.
func (COCO) Serialize(boxes []Box, imgWidth, imgHeight int) string {
	decimals := DecimalPlacesForImage(imgWidth, imgHeight)
	return serializeLines(boxes, func(b Box) string {
		row := formatRow(decimals, [4]float64{b.XMin, b.YMin, b.Width, b.Height})
		return withLabel(row, b.Label)
	})
}

// Detect implements Codec. A line matches when its first four tokens are
// unsigned integers.
func (COCO) Detect(content string) bool {
	return majority(content, func(fields []string) bool {
		if len(fields) < 4 {
			return false
		}
		for _, tok := range fields[:4] {
			if !digitsOnly.MatchString(tok) {
				return false
			}
		}
		return true
	})
}
