package main

import (
	"fmt"
	"io"

	"stupyd/internal/observ"
	"stupyd/internal/pipeline"
)

func printTimings(out io.Writer, timer *observ.Timer, res pipeline.Result) error {
	if out == nil || timer == nil {
		return nil
	}
	cached := 0
	for _, fr := range res.Files {
		if fr.Cached {
			cached++
		}
	}
	if _, err := fmt.Fprintf(out, "converted %d file(s), %d from cache\n", len(res.Files), cached); err != nil {
		return err
	}
	return timer.WriteSummary(out)
}
