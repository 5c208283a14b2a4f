package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"stupyd/internal/diag"
	"stupyd/internal/source"
)

// lines are shown the way the rewriter measures columns
const tabWidth = 8

type palette struct {
	info, warning, err *color.Color
	code, gutter, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		info:    color.New(color.FgCyan, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		code:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		note:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.info, p.warning, p.err, p.code, p.gutter, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warning
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с кареткой ^ под колонкой, затем Notes.
// fs may be nil, in which case no source context is printed.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		var sb strings.Builder
		writeHeader(&sb, d, opts, p)
		if fs != nil && d.Pos.Line > 0 {
			if f, ok := fs.GetByPath(d.Path); ok {
				writeContext(&sb, f, d.Pos, opts, p)
			}
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&sb, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
			}
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(sb *strings.Builder, d diag.Diagnostic, opts PrettyOpts, p palette) {
	sb.WriteString(formatPath(d.Path, opts.PathMode, opts.BaseDir))
	if d.Pos.Line > 0 {
		fmt.Fprintf(sb, ":%d:%d", d.Pos.Line, d.Pos.Col)
	}
	fmt.Fprintf(sb, ": %s %s: %s\n",
		p.severity(d.Severity).Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message)
}

func writeContext(sb *strings.Builder, f *source.File, pos source.LineCol, opts PrettyOpts, p palette) {
	if pos.Line > f.LineCount() {
		return
	}
	first := uint32(1)
	if ctx := uint32(opts.Context); pos.Line > ctx {
		first = pos.Line - ctx
	}
	gutterWidth := len(strconv.FormatUint(uint64(pos.Line), 10))

	var target string
	for n := first; n <= pos.Line; n++ {
		text := expandTabs(f.GetLine(n))
		if n == pos.Line {
			target = text
		}
		fmt.Fprintf(sb, "%s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, n), clip(text, opts.Width))
	}
	pad := caretOffset(target, pos.Col)
	if opts.Width > 0 && pad >= int(opts.Width) {
		return
	}
	fmt.Fprintf(sb, "%s %s%s\n",
		p.gutter.Sprintf("%*s |", gutterWidth, ""),
		strings.Repeat(" ", pad),
		p.severity(diag.SevError).Sprint("^"))
}

// caretOffset is the display width of the characters before 1-based col.
func caretOffset(line string, col uint32) int {
	if col <= 1 {
		return 0
	}
	runes := []rune(line)
	n := min(int(col-1), len(runes))
	return runewidth.StringWidth(string(runes[:n]))
}

func clip(value string, width uint8) string {
	if width == 0 || runewidth.StringWidth(value) <= int(width) {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, int(width), "")
	}
	return runewidth.Truncate(value, int(width), "...")
}

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	return strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
}
