package bbox

import (
	"regexp"
)

var (
	// numericLead identifies a first token that is a plain number, which
	// rules the line out as a Tesseract box line during detection.
	numericLead = regexp.MustCompile(`^\d+\.?\d*$`)
	// decimalToken is the shape detection requires of last-four box tokens.
	decimalToken = regexp.MustCompile(`^-?\d+\.?\d*$`)
)

// TesseractBox handles Tesseract training ".box" lines,
// "label x_min y_min x_max y_max [page]", in pixels. The page token is ignored
// on input and written as 0.
type TesseractBox struct{}

// Format implements Codec.
func (TesseractBox) Format() Format { return FormatTesseractBox }

// tesseractLine is one candidate reading of a line.
type tesseractLine struct {
	label  []string
	coords []string
}

// tesseractCandidates lists the readings of a line in priority order:
//
//  1. multi word label x0 y0 x1 y1 page
//  2. label x0 y0 x1 y1 page
//  3. label page x0 y0 x1 y1
//  4. [label...] x0 y0 x1 y1
//
// Reading 1 needs at least seven tokens with the last five numeric, so a
// label such as "Page 2" keeps its trailing number. Readings 2 and 3 only
// apply when the token that distinguishes them (the trailing page, or the
// page after the label) is numeric.
func tesseractCandidates(fields []string) []tesseractLine {
	n := len(fields)
	if n < 5 {
		return nil
	}
	var out []tesseractLine
	if n >= 7 && allFinite(fields[n-5:]) {
		out = append(out, tesseractLine{label: fields[:n-5], coords: fields[n-5 : n-1]})
	}
	if n >= 6 {
		if isFinite(fields[5]) {
			out = append(out, tesseractLine{label: fields[:1], coords: fields[1:5]})
		} else if isFinite(fields[1]) {
			out = append(out, tesseractLine{label: fields[:1], coords: fields[2:6]})
		}
	}
	return append(out, tesseractLine{label: fields[:n-4], coords: fields[n-4:]})
}

func allFinite(tokens []string) bool {
	for _, tok := range tokens {
		if !isFinite(tok) {
			return false
		}
	}
	return true
}

// Parse implements Codec. Image dimensions are not needed.
func (TesseractBox) Parse(content string, _, _ int) []Box {
	return parseLines(content, func(fields []string) (Box, bool) {
		for _, c := range tesseractCandidates(fields) {
			v, ok := parseFour(c.coords)
			if !ok {
				continue
			}
			return FromCorners(v[0], v[1], v[2], v[3], joinLabel(c.label)), true
		}
		return Box{}, false
	})
}

// Serialize implements Codec.
func (TesseractBox) Serialize(boxes []Box, imgWidth, imgHeight int) string {
	decimals := DecimalPlacesForImage(imgWidth, imgHeight)
	return serializeLines(boxes, func(b Box) string {
		row := formatRow(decimals, [4]float64{b.XMin, b.YMin, b.XMax(), b.YMax()})
		return b.Label + " " + row + " 0"
	})
}

// Detect implements Codec. A line matches when it does not start with a
// number, has more than four tokens and one of the parse readings finds four
// numeric box tokens.
func (TesseractBox) Detect(content string) bool {
	return majority(content, func(fields []string) bool {
		if len(fields) < 5 || numericLead.MatchString(fields[0]) {
			return false
		}
		candidates := tesseractCandidates(fields)
		for i, c := range candidates {
			last := i == len(candidates)-1
			if last && !allMatch(c.coords, decimalToken) {
				continue
			}
			if _, ok := parseFour(c.coords); ok {
				return true
			}
		}
		return false
	})
}

func allMatch(tokens []string, re *regexp.Regexp) bool {
	for _, tok := range tokens {
		if !re.MatchString(tok) {
			return false
		}
	}
	return true
}
