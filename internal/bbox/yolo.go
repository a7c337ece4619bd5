package bbox

import (
	"fmt"
	"strings"
)

// LabelPosition selects where the YOLO serializer writes the class token.
type LabelPosition string

const (
	// ClassLast writes "x_center y_center width height class".
	ClassLast LabelPosition = "class-last"
	// ClassFirst writes "class x_center y_center width height".
	ClassFirst LabelPosition = "class-first"
)

// ParseLabelPosition validates a label position. The aliases "last",
// "coords-first" and "first" are accepted; the empty string means ClassLast.
func ParseLabelPosition(s string) (LabelPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last", "class-last", "coords-first":
		return ClassLast, nil
	case "first", "class-first":
		return ClassFirst, nil
	default:
		return "", fmt.Errorf("unknown yolo label position %q", s)
	}
}

// defaultYOLOClass is written for boxes without a label.
const defaultYOLOClass = "0"

// YOLO handles normalized center/size lines with a class token either first
// or last. The zero value writes class-last.
type YOLO struct {
	LabelPosition LabelPosition
}

// Format implements Codec.
func (YOLO) Format() Format { return FormatYOLO }

// yoloLine is one interpretation of a YOLO line before pixel conversion.
type yoloLine struct {
	class  string
	coords [4]float64
}

// interpretYOLO resolves the class and geometry tokens of a line. The rules
// are tried in order and the first that applies wins:
//
//  1. tokens 1-4 normalized and token 0 looks like a class (an integer, or
//     not itself normalized): class first
//  2. tokens 0-3 normalized: coordinates first, class is the rest
//  3. the last four tokens normalized: class is everything before them
func interpretYOLO(fields []string) (yoloLine, bool) {
	if len(fields) < 5 {
		return yoloLine{}, false
	}
	allNormalized := func(tokens []string) bool {
		for _, tok := range tokens {
			if !isNormalized(tok) {
				return false
			}
		}
		return true
	}

	var line yoloLine
	switch {
	case allNormalized(fields[1:5]) && looksLikeClass(fields[0]):
		line.class = fields[0]
		line.coords, _ = parseFour(fields[1:5])
	case allNormalized(fields[:4]):
		line.class = joinLabel(fields[4:])
		line.coords, _ = parseFour(fields[:4])
	case allNormalized(fields[len(fields)-4:]):
		line.class = joinLabel(fields[:len(fields)-4])
		line.coords, _ = parseFour(fields[len(fields)-4:])
	default:
		return yoloLine{}, false
	}
	return line, true
}

// looksLikeClass treats digit-only tokens and tokens outside [0,1]
// (including non-numeric names) as class ids. The check is textual, so a
// coordinate written as "0.000" or "1.0" is not mistaken for a class. A
// class of "0.5" is indistinguishable from a coordinate and loses to the
// coordinate reading.
func looksLikeClass(tok string) bool {
	return digitsOnly.MatchString(tok) || !isNormalized(tok)
}

// Parse implements Codec. Both dimensions must be positive; otherwise the
// result is empty.
func (YOLO) Parse(content string, imgWidth, imgHeight int) []Box {
	if imgWidth <= 0 || imgHeight <= 0 {
		return []Box{}
	}
	w, h := float64(imgWidth), float64(imgHeight)
	return parseLines(content, func(fields []string) (Box, bool) {
		line, ok := interpretYOLO(fields)
		if !ok {
			return Box{}, false
		}
		xc, yc := line.coords[0]*w, line.coords[1]*h
		bw, bh := line.coords[2]*w, line.coords[3]*h
		return Box{
			XMin:   xc - bw/2,
			YMin:   yc - bh/2,
			Width:  bw,
			Height: bh,
			Label:  line.class,
		}, true
	})
}

// Serialize implements Codec. Both dimensions must be positive; otherwise the
// result is the empty string.
func (c YOLO) Serialize(boxes []Box, imgWidth, imgHeight int) string {
	if imgWidth <= 0 || imgHeight <= 0 {
		return ""
	}
	decimals := DecimalPlacesForImage(imgWidth, imgHeight)
	w, h := float64(imgWidth), float64(imgHeight)
	return serializeLines(boxes, func(b Box) string {
		row := formatRow(decimals, [4]float64{
			(b.XMin + b.Width/2) / w,
			(b.YMin + b.Height/2) / h,
			b.Width / w,
			b.Height / h,
		})
		class := b.Label
		if class == "" {
			class = defaultYOLOClass
		}
		if c.LabelPosition == ClassFirst {
			return class + " " + row
		}
		return row + " " + class
	})
}

// Detect implements Codec. A line matches when tokens 1-4 are normalized,
// assuming a leading class token.
func (YOLO) Detect(content string) bool {
	return majority(content, func(fields []string) bool {
		if len(fields) < 5 {
			return false
		}
		for _, tok := range fields[1:5] {
			if !isNormalized(tok) {
				return false
			}
		}
		return true
	})
}
