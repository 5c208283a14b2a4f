package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk layout: an optional `base` naming the built-in
// table to start from, followed by any Config keys that override it.
type fileConfig struct {
	Base string `toml:"base"`
	Config
}

// LoadFile reads a TOML rule file. Keys absent from the file inherit the
// value of the base table (cpp unless `base` says otherwise).
func LoadFile(path string) (*RuleSet, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes a TOML rule table; name is used for error messages and as
// the RuleSet name.
func Parse(name string, data []byte) (*RuleSet, error) {
	var head struct {
		Base string `toml:"base"`
	}
	meta, err := toml.Decode(string(data), &head)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	base := DefaultName
	if meta.IsDefined("base") {
		base = strings.TrimSpace(head.Base)
	}
	cfg, err := BuiltinConfig(base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	// lists from the file replace the inherited ones instead of merging
	// element by element into them
	if meta.IsDefined("keep_colon") {
		cfg.KeepColon = nil
	}
	if meta.IsDefined("not_a_block") {
		cfg.NotABlock = nil
	}
	if meta.IsDefined("no_semicolon") {
		cfg.NoSemicolon = nil
	}
	if meta.IsDefined("semicolon_after_indent") {
		cfg.SemicolonAfterIndent = nil
	}
	if meta.IsDefined("replaces") {
		cfg.Replaces = nil
	}

	fc := fileConfig{Base: base, Config: cfg}
	meta, err = toml.Decode(string(data), &fc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: %w: unknown keys %s", name, ErrInvalidRules, strings.Join(keys, ", "))
	}

	rs, err := Compile(tableName(name), fc.Config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rs, nil
}

func tableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Encode writes the configuration of rs in the given format (toml|json).
func Encode(w io.Writer, rs *RuleSet, format string) error {
	cfg := rs.Config()
	switch strings.ToLower(format) {
	case "", "toml":
		if _, err := fmt.Fprintf(w, "# stupyd rule table: %s\n", rs.Name); err != nil {
			return err
		}
		return toml.NewEncoder(w).Encode(cfg)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format %q (must be toml or json)", format)
	}
}
