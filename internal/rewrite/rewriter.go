package rewrite

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"stupyd/internal/diag"
	"stupyd/internal/observ"
	"stupyd/internal/rules"
	"stupyd/internal/source"
	"stupyd/internal/trace"
)

// Pass names, used for timings and trace spans.
const (
	PassTabs     = "tabs"
	PassJoin     = "join"
	PassComments = "comments"
	PassIndent   = "indent"
)

// Options tunes a single Rewrite call.
type Options struct {
	// Path names the input in diagnostics.
	Path string
	// Reporter receives notes about leniently handled input; nil drops them.
	Reporter diag.Reporter
	// Timer accumulates per-pass durations; nil disables timing.
	Timer *observ.Timer
}

// Rewriter converts line buffers according to a fixed rule set. It holds no
// per-conversion state and may be shared between goroutines.
type Rewriter struct {
	rules *rules.RuleSet
}

// New returns a Rewriter driven by rs.
func New(rs *rules.RuleSet) (*Rewriter, error) {
	if rs == nil {
		return nil, errors.New("rewrite: nil rule set")
	}
	return &Rewriter{rules: rs}, nil
}

// Rules returns the rule set the rewriter was built with.
func (r *Rewriter) Rules() *rules.RuleSet {
	return r.rules
}

// Rewrite runs every pass over a copy of lines and returns the output lines.
// The caller's slice is left untouched.
func (r *Rewriter) Rewrite(ctx context.Context, lines []string, opts Options) []string {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	report := func(code diag.Code, sev diag.Severity, idx, col int, msg string) {
		reporter.Report(code, sev, opts.Path, lineCol(idx, col), msg, nil)
	}

	buf := slices.Clone(lines)

	r.pass(ctx, opts.Timer, PassTabs, func(*trace.Span) {
		expandTabs(buf)
	})

	r.pass(ctx, opts.Timer, PassJoin, func(*trace.Span) {
		var dangling int
		buf, dangling = joinContinuations(buf, r.rules.LineContinuation)
		if dangling >= 0 {
			report(diag.LineContinuationAtEOF, diag.SevWarning, dangling, 0,
				fmt.Sprintf("input ends after a %q continuation; pending fragments flushed as the last line", r.rules.LineContinuation))
		}
	})

	r.pass(ctx, opts.Timer, PassComments, func(sp *trace.Span) {
		n := stripComments(buf, r.rules.LineComment)
		sp.Set("stripped", strconv.Itoa(n))
	})

	var out []string
	r.pass(ctx, opts.Timer, PassIndent, func(sp *trace.Span) {
		in := newIndenter(r.rules, len(buf))
		in.emit = report
		in.onDedent = func(idx, target, closed, _ int) {
			sp.Mark("dedent", fmt.Sprintf("line %d to column %d closes %d", idx+1, target, closed))
		}
		out = in.run(buf)
		sp.Set("lines", strconv.Itoa(len(out)))
	})
	return out
}

func (r *Rewriter) pass(ctx context.Context, timer *observ.Timer, name string, fn func(*trace.Span)) {
	_, span := trace.Start(ctx, trace.ScopePass, name)
	timer.Time(name, func() { fn(span) })
	span.End("")
}

// RewriteString converts src, split on '\n', and returns the printed form.
func (r *Rewriter) RewriteString(src string) string {
	return string(Join(r.Rewrite(context.Background(), strings.Split(src, "\n"), Options{})))
}

// Join renders output lines the way they are printed: separated by '\n'
// and followed by one final newline.
func Join(lines []string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func lineCol(idx, col int) source.LineCol {
	line, err := safecast.Conv[uint32](idx + 1)
	if err != nil {
		line = 0
	}
	c, err := safecast.Conv[uint32](col + 1)
	if err != nil {
		c = 0
	}
	return source.LineCol{Line: line, Col: c}
}
