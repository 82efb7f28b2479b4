package screen

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Search scans every retained row (scrollback followed by the visible grid)
// for case-insensitive occurrences of query, normalizing both sides to NFC
// first so combining-mark variants of the same glyph compare equal. Matches
// never cross line boundaries. Returns matches in row order, oldest first.
func (s *Screen) Search(query string) []Match {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(norm.NFC.String(query))
	if needle == "" {
		return nil
	}

	var matches []Match
	total := s.TotalRows()
	for row := 0; row < total; row++ {
		text := strings.ToLower(norm.NFC.String(s.RowText(row)))
		matches = append(matches, findAllMatches(row, text, needle)...)
	}
	return matches
}

// findAllMatches locates every occurrence of needle in text, overlapping
// occurrences included, expressed as rune offsets into text.
func findAllMatches(row int, text, needle string) []Match {
	if needle == "" {
		return nil
	}
	runes := []rune(text)
	needleRunes := []rune(needle)
	var out []Match
	for i := 0; i+len(needleRunes) <= len(runes); i++ {
		if runesEqual(runes[i:i+len(needleRunes)], needleRunes) {
			out = append(out, Match{AbsoluteRow: row, ColStart: i, ColEnd: i + len(needleRunes)})
		}
	}
	return out
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
