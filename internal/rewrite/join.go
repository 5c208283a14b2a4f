package rewrite

import "strings"

// joinContinuations merges lines ending with marker into the following line.
// For every absorbed fragment an empty line is appended after the merged
// line, so the buffer keeps its length. If the input ends while fragments
// are pending they are flushed as the last line and dangling holds the
// index of the first pending fragment; otherwise dangling is -1.
func joinContinuations(lines []string, marker string) (out []string, dangling int) {
	if marker == "" {
		return lines, -1
	}

	out = make([]string, 0, len(lines))
	var pending []string
	first := -1
	for i, line := range lines {
		if strings.HasSuffix(line, marker) {
			if len(pending) == 0 {
				first = i
			}
			pending = append(pending, strings.TrimSuffix(line, marker))
			continue
		}
		if len(pending) == 0 {
			out = append(out, line)
			continue
		}
		out = append(out, strings.Join(pending, "")+line)
		out = appendBlank(out, len(pending))
		pending = pending[:0]
	}

	if len(pending) == 0 {
		return out, -1
	}
	out = append(out, strings.Join(pending, ""))
	out = appendBlank(out, len(pending)-1)
	return out, first
}

func appendBlank(lines []string, n int) []string {
	for range n {
		lines = append(lines, "")
	}
	return lines
}
