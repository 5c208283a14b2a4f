package rules

import (
	"fmt"
	"sort"
)

// DefaultName is the rule table used when nothing else is requested.
const DefaultName = "cpp"

func cppConfig() Config {
	return Config{
		RemoveEmptyLines: true,
		// must keep end line colon
		KeepColon: []string{"private", "protected", "public", "case", "default"},
		// indent-free
		NotABlock:        []string{"private", "protected", "public"},
		LineComment:      "//",
		LineContinuation: `\`,
		Placeholder:      "pass",
		IndentBegin:      " {",
		IndentEnd:        "}",
		Semicolon:        ";",
		NoSemicolon:      []string{`;$`, `,$`, `"$`, `^#`},
		SemicolonAfterIndent: []string{
			"struct",
			"class",
		},
		Replaces: []ReplaceConfig{
			{Pattern: `for ([^:()]*):`, Replacement: `for (${1}):`},
			{Pattern: `if ([^:()]*):`, Replacement: `if (${1}):`},
			{Pattern: `while ([^:()]*):`, Replacement: `while (${1}):`},
			{Pattern: `switch ([^:()]*):`, Replacement: `switch (${1}):`},
		},
	}
}

// cConfig drops the C++ access specifiers and treats every aggregate as
// needing a trailing terminator.
func cConfig() Config {
	cfg := cppConfig()
	cfg.KeepColon = []string{"case", "default"}
	cfg.NotABlock = nil
	cfg.SemicolonAfterIndent = []string{"struct", "union", "enum"}
	return cfg
}

var builtins = map[string]func() Config{
	"cpp": cppConfig,
	"c":   cConfig,
}

// BuiltinConfig returns the configuration of a built-in rule table.
func BuiltinConfig(name string) (Config, error) {
	mk, ok := builtins[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown rule table %q (available: %v)", name, BuiltinNames())
	}
	return mk(), nil
}

// Builtin compiles a built-in rule table.
func Builtin(name string) (*RuleSet, error) {
	cfg, err := BuiltinConfig(name)
	if err != nil {
		return nil, err
	}
	return Compile(name, cfg)
}

// CPP returns the default C++ rule table. Built-ins are known to be valid.
func CPP() *RuleSet {
	rs, err := Builtin(DefaultName)
	if err != nil {
		panic(err)
	}
	return rs
}

// BuiltinNames lists the built-in tables in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
