package bbox

import (
	"strings"
)

// Codec reads and writes one on-disk annotation format.
//
// imgWidth and imgHeight are the pixel dimensions of the annotated image, or
// zero when unknown. Pixel formats only use them to pick output precision;
// YOLO needs them to convert normalized coordinates and yields empty results
// without them.
type Codec interface {
	// Format returns the format id this codec handles.
	Format() Format

	// Parse converts annotation text into boxes, skipping malformed lines.
	Parse(content string, imgWidth, imgHeight int) []Box

	// Serialize renders boxes as annotation text, one line per box, joined
	// with "\n" and without a trailing newline.
	Serialize(boxes []Box, imgWidth, imgHeight int) string

	// Detect reports whether content looks like this format.
	Detect(content string) bool
}

// parseLines applies parseLine to every non-blank line and collects the boxes
// that parsed.
func parseLines(content string, parseLine func(fields []string) (Box, bool)) []Box {
	lines := splitLines(content)
	boxes := make([]Box, 0, len(lines))
	for _, line := range lines {
		if b, ok := parseLine(strings.Fields(line)); ok {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

// serializeLines renders each box with formatLine and joins the results.
func serializeLines(boxes []Box, formatLine func(b Box) string) string {
	lines := make([]string, len(boxes))
	for i, b := range boxes {
		lines[i] = formatLine(b)
	}
	return strings.Join(lines, "\n")
}

// withLabel appends label to row when present.
func withLabel(row, label string) string {
	if label == "" {
		return row
	}
	return row + " " + label
}

// joinLabel rebuilds a label from whitespace-split tokens.
func joinLabel(tokens []string) string {
	return strings.Join(tokens, " ")
}
