// Package rules defines the rule tables that drive the rewriter.
//
// A table is authored as a Config (Go literal or TOML file) and compiled
// into an immutable RuleSet: regular expressions are compiled once and
// prefix lists are validated. Built-in tables are "cpp" (the default) and
// "c". A TOML file may start from either with `base = "c"` and override
// individual keys:
//
//	base = "cpp"
//	remove_empty_lines = false
//	semicolon_after_indent = ["struct", "class", "union"]
//
//	[[replaces]]
//	pattern = 'while ([^:()]*):'
//	replacement = 'while (${1}):'
//
// Replacements use regexp.Expand syntax.
package rules
