package bbox

// PascalVOC handles "x_min y_min x_max y_max [label]" lines in pixels.
type PascalVOC struct{}

// Format implements Codec.
func (PascalVOC) Format() Format { return FormatPascalVOC }

// Parse implements Codec. Inverted corners produce zero-sized boxes.
func (PascalVOC) Parse(content string, _, _ int) []Box {
	return parseLines(content, func(fields []string) (Box, bool) {
		if len(fields) < 4 {
			return Box{}, false
		}
		v, ok := parseFour(fields[:4])
		if !ok {
			return Box{}, false
		}
		return FromCorners(v[0], v[1], v[2], v[3], joinLabel(fields[4:])), true
	})
}

// Serialize implements Codec.
func (PascalVOC) Serialize(boxes []Box, imgWidth, imgHeight int) string {
	decimals := DecimalPlacesForImage(imgWidth, imgHeight)
	return serializeLines(boxes, func(b Box) string {
		row := formatRow(decimals, [4]float64{b.XMin, b.YMin, b.XMax(), b.YMax()})
		return withLabel(row, b.Label)
	})
}

// Detect implements Codec. A line matches only when its corners are strictly
// ordered, which separates VOC from COCO width/height lines.
func (PascalVOC) Detect(content string) bool {
	return majority(content, func(fields []string) bool {
		if len(fields) < 4 {
			return false
		}
		v, ok := parseFour(fields[:4])
		return ok && v[2] > v[0] && v[3] > v[1]
	})
}
