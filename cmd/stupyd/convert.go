package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stupyd/internal/cache"
	"stupyd/internal/diag"
	"stupyd/internal/diagfmt"
	"stupyd/internal/observ"
	"stupyd/internal/pipeline"
	"stupyd/internal/rewrite"
)

const cacheApp = "stupyd"

func runConvert(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	manifest, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	opts, err := readConvertOptions(cmd, manifest)
	if err != nil {
		return err
	}
	rs, err := loadRuleSet(cmd, manifest)
	if err != nil {
		return err
	}
	rw, err := rewrite.New(rs)
	if err != nil {
		return err
	}

	req := &pipeline.Request{
		Files:          args,
		Rewriter:       rw,
		Jobs:           opts.jobs,
		MaxDiagnostics: opts.maxDiagnostics,
		OutDir:         opts.outDir,
		Ext:            opts.ext,
	}
	if opts.timings {
		req.Timer = observ.NewTimer()
	}
	errOut := cmd.ErrOrStderr()
	if opts.cache {
		c, err := cache.Open(cacheApp)
		if err != nil {
			// кэш необязателен
			if !opts.quiet {
				fmt.Fprintf(errOut, "cache disabled: %v\n", err)
			}
		} else {
			req.Cache = c
		}
	}

	var res pipeline.Result
	if shouldUseTUI(opts.ui, opts.outDir) {
		res, err = runConvertWithUI(cmd.Context(), "stupyd", req)
	} else {
		res, err = pipeline.Convert(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	if opts.outDir == "" {
		out := cmd.OutOrStdout()
		for i := range res.Files {
			if _, err := out.Write(res.Files[i].Output()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
	} else if !opts.quiet {
		for _, fr := range res.Files {
			fmt.Fprintf(errOut, "wrote %s\n", fr.Written)
		}
	}
	if !opts.quiet {
		for _, fr := range res.Files {
			if fr.CacheErr != nil {
				fmt.Fprintf(errOut, "cache: %s: %v\n", fr.Path, fr.CacheErr)
			}
		}
	}

	if err := printDiagnostics(errOut, res, opts); err != nil {
		return err
	}
	if opts.timings {
		return printTimings(errOut, req.Timer, res)
	}
	return nil
}

// printDiagnostics writes the diagnostics selected by --warn.
func printDiagnostics(w io.Writer, res pipeline.Result, opts convertOptions) error {
	if opts.warn == warnOff {
		return nil
	}
	all := res.Diagnostics()
	shown := diag.NewBag(opts.maxDiagnostics)
	for _, d := range all.Items() {
		if d.Severity == diag.SevInfo && opts.warn != warnAll {
			continue
		}
		shown.Add(d)
	}
	if shown.Len() == 0 && opts.diagFormat != "json" {
		return nil
	}
	if opts.diagFormat == "json" {
		return diagfmt.JSON(w, shown, diagfmt.JSONOpts{
			PathMode:     opts.pathMode,
			Max:          opts.maxDiagnostics,
			IncludeNotes: true,
		})
	}
	return diagfmt.Pretty(w, shown, res.FileSet, diagfmt.PrettyOpts{
		Color:     opts.color,
		Context:   1,
		PathMode:  opts.pathMode,
		ShowNotes: true,
	})
}
