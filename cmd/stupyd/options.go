package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stupyd/internal/diagfmt"
	"stupyd/internal/rules"
)

type warnMode string

const (
	warnOff warnMode = "off"
	warnOn  warnMode = "on"  // warnings and errors
	warnAll warnMode = "all" // info too
)

func readWarnMode(value string) (warnMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "off":
		return warnOff, nil
	case "on":
		return warnOn, nil
	case "all":
		return warnAll, nil
	default:
		return "", fmt.Errorf("invalid --warn value %q (expected off|on|all)", value)
	}
}

type convertOptions struct {
	outDir         string
	ext            string
	jobs           int
	cache          bool
	warn           warnMode
	diagFormat     string
	pathMode       diagfmt.PathMode
	ui             uiMode
	quiet          bool
	timings        bool
	maxDiagnostics int
	color          bool
}

// readConvertOptions collects the root command flags. Values from the
// project file fill in flags that were not given on the command line.
func readConvertOptions(cmd *cobra.Command, manifest *projectManifest) (convertOptions, error) {
	var opts convertOptions
	flags := cmd.Flags()
	var err error

	if opts.outDir, err = flags.GetString("out-dir"); err != nil {
		return opts, err
	}
	if !flags.Changed("out-dir") && manifest.has("out_dir") {
		opts.outDir = manifest.resolve(manifest.Config.Convert.OutDir)
	}
	if opts.ext, err = flags.GetString("ext"); err != nil {
		return opts, err
	}
	if !flags.Changed("ext") && manifest.has("ext") {
		opts.ext = manifest.Config.Convert.Ext
	}
	if opts.ext != "" && !strings.HasPrefix(opts.ext, ".") {
		opts.ext = "." + opts.ext
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, err
	}
	if !flags.Changed("jobs") && manifest.has("jobs") {
		opts.jobs = manifest.Config.Convert.Jobs
	}
	if opts.jobs < 0 {
		return opts, errors.New("--jobs must not be negative")
	}
	if opts.cache, err = flags.GetBool("cache"); err != nil {
		return opts, err
	}
	if !flags.Changed("cache") && manifest.has("cache") {
		opts.cache = manifest.Config.Convert.Cache
	}

	warnValue, err := flags.GetString("warn")
	if err != nil {
		return opts, err
	}
	if opts.warn, err = readWarnMode(warnValue); err != nil {
		return opts, err
	}
	if opts.diagFormat, err = flags.GetString("diag-format"); err != nil {
		return opts, err
	}
	switch opts.diagFormat {
	case "pretty", "json":
	default:
		return opts, fmt.Errorf("unsupported diagnostics format %q (must be pretty or json)", opts.diagFormat)
	}
	pathMode, err := flags.GetString("path-mode")
	if err != nil {
		return opts, err
	}
	if opts.pathMode, err = diagfmt.ParsePathMode(pathMode); err != nil {
		return opts, err
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return opts, err
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}

	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, err
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, err
	}
	if opts.color, err = setupColor(cmd); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadManifest finds stupyd.toml unless --no-project is set.
func loadManifest(cmd *cobra.Command) (*projectManifest, error) {
	skip, err := cmd.Flags().GetBool("no-project")
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, nil
	}
	manifest, _, err := loadProjectManifest(".")
	return manifest, err
}

// loadRuleSet builds the active rule table from --rules, --table,
// --keep-empty and the project file.
func loadRuleSet(cmd *cobra.Command, manifest *projectManifest) (*rules.RuleSet, error) {
	flags := cmd.Flags()
	rulesPath, err := flags.GetString("rules")
	if err != nil {
		return nil, err
	}
	table, err := flags.GetString("table")
	if err != nil {
		return nil, err
	}
	if flags.Changed("rules") && flags.Changed("table") {
		return nil, errors.New("--rules and --table cannot be combined")
	}
	if !flags.Changed("rules") && !flags.Changed("table") {
		switch {
		case manifest.has("rules"):
			rulesPath = manifest.resolve(manifest.Config.Convert.Rules)
		case manifest.has("table"):
			table = manifest.Config.Convert.Table
		}
	}
	keepEmpty, err := flags.GetBool("keep-empty")
	if err != nil {
		return nil, err
	}
	if !flags.Changed("keep-empty") && manifest.has("keep_empty") {
		keepEmpty = manifest.Config.Convert.KeepEmpty
	}

	var rs *rules.RuleSet
	if rulesPath != "" {
		rs, err = rules.LoadFile(rulesPath)
	} else {
		if table == "" {
			table = rules.DefaultName
		}
		rs, err = rules.Builtin(table)
	}
	if err != nil {
		return nil, err
	}
	if keepEmpty && rs.RemoveEmptyLines {
		cfg := rs.Config()
		cfg.RemoveEmptyLines = false
		if rs, err = rules.Compile(rs.Name, cfg); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// setupColor applies --color to fatih/color and reports whether colour is on.
func setupColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return false, err
	}
	var enabled bool
	switch strings.ToLower(mode) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	case "auto", "":
		enabled = isTerminal(os.Stderr)
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	color.NoColor = !enabled
	return enabled, nil
}
