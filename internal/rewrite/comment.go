package rewrite

import (
	"regexp"
	"strings"
)

// stringLiteral matches from the first to the last double quote of a line.
var stringLiteral = regexp.MustCompile(`"(.*[\\"]*.*)"`)

// splitComment cuts line at the first comment marker that is not inside a
// string literal and returns both halves. ok is false when the line has no
// comment.
//
// Each literal span is checked on its own: a marker is accepted as soon as
// it lies outside the span under test, even if another span covers it.
func splitComment(line, marker string) (code, comment string, ok bool) {
	if marker == "" {
		return line, "", false
	}
	starts := markerOffsets(line, marker)
	if len(starts) == 0 {
		return line, "", false
	}

	spans := stringLiteral.FindAllStringIndex(line, -1)
	if len(spans) == 0 {
		s := starts[0]
		return line[:s], line[s:], true
	}
	for _, span := range spans {
		for _, s := range starts {
			if span[0] < s && s < span[1] {
				continue
			}
			return line[:s], line[s:], true
		}
	}
	return line, "", false
}

// markerOffsets returns the byte offsets of non-overlapping occurrences of
// marker, left to right.
func markerOffsets(line, marker string) []int {
	var offsets []int
	for off := 0; off <= len(line); {
		i := strings.Index(line[off:], marker)
		if i < 0 {
			break
		}
		offsets = append(offsets, off+i)
		off += i + len(marker)
	}
	return offsets
}

// stripComments drops the comment part of every line in place.
func stripComments(lines []string, marker string) (stripped int) {
	if marker == "" {
		return 0
	}
	for i, line := range lines {
		if code, _, ok := splitComment(line, marker); ok {
			lines[i] = code
			stripped++
		}
	}
	return stripped
}
