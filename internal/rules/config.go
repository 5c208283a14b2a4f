package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Config is the serialisable form of a rule table. It is what rule files
// decode into and what `stupyd rules` prints.
type Config struct {
	RemoveEmptyLines     bool            `toml:"remove_empty_lines" json:"remove_empty_lines"`
	KeepColon            []string        `toml:"keep_colon" json:"keep_colon"`
	NotABlock            []string        `toml:"not_a_block" json:"not_a_block"`
	LineComment          string          `toml:"line_comment" json:"line_comment"`
	LineContinuation     string          `toml:"line_continuation" json:"line_continuation"`
	Placeholder          string          `toml:"placeholder" json:"placeholder"`
	IndentBegin          string          `toml:"indent_begin" json:"indent_begin"`
	IndentEnd            string          `toml:"indent_end" json:"indent_end"`
	Semicolon            string          `toml:"semicolon" json:"semicolon"`
	NoSemicolon          []string        `toml:"no_semicolon" json:"no_semicolon"`
	SemicolonAfterIndent []string        `toml:"semicolon_after_indent" json:"semicolon_after_indent"`
	Replaces             []ReplaceConfig `toml:"replaces" json:"replaces"`
}

// ReplaceConfig is one entry of the `[[replaces]]` array.
type ReplaceConfig struct {
	Pattern     string `toml:"pattern" json:"pattern"`
	Replacement string `toml:"replacement" json:"replacement"`
}

// ErrInvalidRules wraps every validation failure returned by Compile.
var ErrInvalidRules = errors.New("invalid rule table")

func (c Config) clone() Config {
	out := c
	out.KeepColon = slices.Clone(c.KeepColon)
	out.NotABlock = slices.Clone(c.NotABlock)
	out.NoSemicolon = slices.Clone(c.NoSemicolon)
	out.SemicolonAfterIndent = slices.Clone(c.SemicolonAfterIndent)
	out.Replaces = slices.Clone(c.Replaces)
	return out
}

// Compile validates cfg and builds an immutable RuleSet named name.
func Compile(name string, cfg Config) (*RuleSet, error) {
	if err := validatePrefixes("keep_colon", cfg.KeepColon); err != nil {
		return nil, err
	}
	if err := validatePrefixes("not_a_block", cfg.NotABlock); err != nil {
		return nil, err
	}
	if cfg.IndentBegin != "" && cfg.IndentEnd == "" {
		return nil, fmt.Errorf("%w: indent_end must be set when indent_begin is %q", ErrInvalidRules, cfg.IndentBegin)
	}
	if strings.ContainsAny(cfg.Placeholder, " \t\n") {
		return nil, fmt.Errorf("%w: placeholder %q must be a single word", ErrInvalidRules, cfg.Placeholder)
	}

	noSemi, err := compilePatterns("no_semicolon", cfg.NoSemicolon)
	if err != nil {
		return nil, err
	}
	after, err := compilePatterns("semicolon_after_indent", cfg.SemicolonAfterIndent)
	if err != nil {
		return nil, err
	}
	replaces := make([]Replace, 0, len(cfg.Replaces))
	for i, rc := range cfg.Replaces {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: replaces[%d]: %w", ErrInvalidRules, i, err)
		}
		replaces = append(replaces, Replace{Pattern: re, Replacement: rc.Replacement})
	}

	own := cfg.clone()
	fp, err := fingerprint(own)
	if err != nil {
		return nil, err
	}
	return &RuleSet{
		Name:                 name,
		RemoveEmptyLines:     own.RemoveEmptyLines,
		KeepColon:            own.KeepColon,
		NotABlock:            own.NotABlock,
		LineComment:          own.LineComment,
		LineContinuation:     own.LineContinuation,
		Placeholder:          own.Placeholder,
		IndentBegin:          own.IndentBegin,
		IndentEnd:            own.IndentEnd,
		Semicolon:            own.Semicolon,
		NoSemicolon:          noSemi,
		SemicolonAfterIndent: after,
		Replaces:             replaces,
		config:               own,
		fingerprint:          fp,
	}, nil
}

func validatePrefixes(field string, prefixes []string) error {
	for i, p := range prefixes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: %s[%d] is empty", ErrInvalidRules, field, i)
		}
	}
	return nil
}

func compilePatterns(field string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", ErrInvalidRules, field, i, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func fingerprint(cfg Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("rules: fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
