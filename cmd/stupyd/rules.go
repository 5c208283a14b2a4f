package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stupyd/internal/rules"
)

var (
	rulesFormat string
	rulesList   bool
)

func init() {
	rulesCmd.Flags().StringVar(&rulesFormat, "format", "toml", "output format (toml|json)")
	rulesCmd.Flags().BoolVar(&rulesList, "list", false, "list the built-in rule tables")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the active rule table",
	Long: `Print the rule table that a conversion with the same flags would use.
The TOML output can be edited and passed back with --rules.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func runRules(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if rulesList {
		for _, name := range rules.BuiltinNames() {
			marker := ""
			if name == rules.DefaultName {
				marker = " (default)"
			}
			if _, err := fmt.Fprintf(out, "%s%s\n", name, marker); err != nil {
				return err
			}
		}
		return nil
	}

	format := strings.ToLower(rulesFormat)
	switch format {
	case "toml", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be toml or json)", rulesFormat)
	}

	manifest, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	rs, err := loadRuleSet(cmd, manifest)
	if err != nil {
		return err
	}
	return rules.Encode(out, rs, format)
}
