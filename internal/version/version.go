package version

import "github.com/fatih/color"

// Version information for the stupyd CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.2.0"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored renders v with its major, minor and patch parts coloured. Anything
// that is not a dotted triple is returned unchanged.
func Colored(v string) string {
	major, minor, patch, suffix, ok := split(v)
	if !ok {
		return v
	}
	return versionMajorColor.Sprint(major) + "." +
		versionMinorColor.Sprint(minor) + "." +
		versionPatchColor.Sprint(patch) + suffix
}

func split(v string) (major, minor, patch, suffix string, ok bool) {
	parts := make([]string, 0, 3)
	start := 0
	for i := 0; i < len(v) && len(parts) < 2; i++ {
		if v[i] == '.' {
			parts = append(parts, v[start:i])
			start = i + 1
		}
	}
	if len(parts) != 2 {
		return "", "", "", "", false
	}
	rest := v[start:]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 || parts[0] == "" || parts[1] == "" {
		return "", "", "", "", false
	}
	return parts[0], parts[1], rest[:end], rest[end:], true
}
