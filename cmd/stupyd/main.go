package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stupyd/internal/version"
)

const banner = "stupyd - indent-like-python preprocessor"

var rootCmd = &cobra.Command{
	Use:   "stupyd [flags] FILE...",
	Short: "Rewrite indentation-structured text into braces and semicolons",
	Long: `stupyd reads files written with Python-style indentation and prints them
with C-like block delimiters and statement terminators.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConvert,
}

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(cleanCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("trace", "", "write a trace to PATH (- for stderr)")
	pf.String("trace-level", "off", "finest traced scope (off|file|pass|line)")
	pf.String("rules", "", "TOML rule table to use instead of a built-in one")
	pf.String("table", "", "built-in rule table (default \"cpp\")")
	pf.Bool("keep-empty", false, "keep blank lines regardless of the rule table")
	pf.Bool("no-project", false, "do not look for stupyd.toml")

	f := rootCmd.Flags()
	f.String("out-dir", "", "write <name><ext> files into DIR instead of stdout")
	f.String("ext", "", "extension of files written with --out-dir (default \".cpp\")")
	f.Int("jobs", 0, "max parallel conversions (0=auto)")
	f.Bool("cache", false, "reuse results cached under $XDG_CACHE_HOME/stupyd")
	f.String("warn", "off", "print diagnostics to stderr (off|on|all)")
	f.Lookup("warn").NoOptDefVal = "on"
	f.String("diag-format", "pretty", "diagnostics format (pretty|json)")
	f.String("path-mode", "auto", "diagnostic path display (auto|absolute|relative|basename)")
	f.String("ui", "auto", "progress UI with --out-dir (auto|on|off)")
}

// main prints the banner, then executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	fmt.Fprintln(os.Stderr, banner)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stupyd: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
