package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stupyd/internal/cache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the stupyd result cache",
	Long:  "Remove the directory under $XDG_CACHE_HOME (or ~/.cache) that holds cached conversions.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	dir, err := cache.DefaultDir(cacheApp)
	if err != nil {
		return fmt.Errorf("failed to locate cache: %w", err)
	}
	out := cmd.OutOrStdout()
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintf(out, "cache directory not found\n")
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	c, err := cache.OpenDir(dir)
	if err != nil {
		return err
	}
	if err := c.DropAll(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", dir, err)
	}
	_, _ = fmt.Fprintf(out, "removed %s\n", dir)
	return nil
}
