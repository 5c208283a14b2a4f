package rules

import (
	"regexp"
	"strings"
)

// Replace is a compiled (pattern, replacement) pair applied to every line
// before block and terminator decisions. Replacement uses regexp.Expand
// syntax (`${1}`).
type Replace struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Apply rewrites every match of the pattern in line.
func (r Replace) Apply(line string) string {
	return r.Pattern.ReplaceAllString(line, r.Replacement)
}

// RuleSet is the compiled, validated rule table consumed by the rewriter.
// Values are built by Compile and must not be modified afterwards.
type RuleSet struct {
	Name string

	RemoveEmptyLines bool
	KeepColon        []string
	NotABlock        []string
	LineComment      string
	LineContinuation string
	Placeholder      string

	IndentBegin string
	IndentEnd   string
	Semicolon   string

	NoSemicolon          []*regexp.Regexp
	SemicolonAfterIndent []*regexp.Regexp
	Replaces             []Replace

	config      Config
	fingerprint string
}

// Config returns a copy of the source configuration the set was compiled from.
func (rs *RuleSet) Config() Config {
	return rs.config.clone()
}

// Fingerprint is a stable hex digest of the configuration. Two rule sets
// with equal fingerprints rewrite identically.
func (rs *RuleSet) Fingerprint() string {
	return rs.fingerprint
}

// KeepsColon reports whether the stripped line starts with a keep_colon keyword.
func (rs *RuleSet) KeepsColon(stripped string) bool {
	return hasAnyPrefix(stripped, rs.KeepColon)
}

// IsNotBlock reports whether the stripped line starts with a not_a_block keyword.
func (rs *RuleSet) IsNotBlock(stripped string) bool {
	return hasAnyPrefix(stripped, rs.NotABlock)
}

// SuppressesSemicolon reports whether any no_semicolon pattern matches; the
// first match wins.
func (rs *RuleSet) SuppressesSemicolon(line string) bool {
	return firstMatch(rs.NoSemicolon, line) >= 0
}

// NeedsSemicolonAfterBlock reports whether the block opened by line must be
// followed by a terminator once it closes.
func (rs *RuleSet) NeedsSemicolonAfterBlock(line string) bool {
	return firstMatch(rs.SemicolonAfterIndent, line) >= 0
}

// ApplyReplaces runs every replacement in order, each on the output of the
// previous one.
func (rs *RuleSet) ApplyReplaces(line string) string {
	for _, r := range rs.Replaces {
		line = r.Apply(line)
	}
	return line
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func firstMatch(patterns []*regexp.Regexp, s string) int {
	for i, re := range patterns {
		if re.MatchString(s) {
			return i
		}
	}
	return -1
}
