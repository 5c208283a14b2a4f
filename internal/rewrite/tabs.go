package rewrite

import "strings"

const tabWidth = 8

var tabSpaces = strings.Repeat(" ", tabWidth)

// expandTabs replaces every tab with tabWidth spaces in place.
func expandTabs(lines []string) {
	for i, line := range lines {
		if strings.IndexByte(line, '\t') >= 0 {
			lines[i] = strings.ReplaceAll(line, "\t", tabSpaces)
		}
	}
}
