package bbox

import (
	"math"
	"strconv"
	"strings"
)

// splitLines breaks content into trimmed, non-blank lines. Both LF and CRLF
// endings are accepted.
func splitLines(content string) []string {
	raw := strings.Split(strings.TrimSpace(content), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseFinite parses s as a decimal float and rejects NaN, infinities and
// hexadecimal literals such as "0x1p3".
func parseFinite(s string) (float64, bool) {
	if isHexLiteral(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// parseFour parses exactly four tokens as finite numbers.
func parseFour(tokens []string) ([4]float64, bool) {
	var out [4]float64
	if len(tokens) != 4 {
		return out, false
	}
	for i, tok := range tokens {
		v, ok := parseFinite(tok)
		if !ok {
			return out, false
		}
		out[i] = v
	}
	return out, true
}

func isFinite(s string) bool {
	_, ok := parseFinite(s)
	return ok
}

// isNormalized reports whether s is a finite number in [0,1].
func isNormalized(s string) bool {
	v, ok := parseFinite(s)
	return ok && v >= 0 && v <= 1
}

// majority reports whether at least half of the non-blank lines satisfy match.
// Empty content never matches.
func majority(content string, match func(fields []string) bool) bool {
	lines := splitLines(content)
	if len(lines) == 0 {
		return false
	}
	matching := 0
	for _, line := range lines {
		if match(strings.Fields(line)) {
			matching++
		}
	}
	return matching >= (len(lines)+1)/2
}

// formatRow renders four coordinates separated by single spaces.
func formatRow(decimals int, values [4]float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatCoord(v, decimals)
	}
	return strings.Join(parts, " ")
}
