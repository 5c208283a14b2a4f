package rewrite

import (
	"fmt"
	"strings"
	"unicode"

	"stupyd/internal/diag"
	"stupyd/internal/rules"
)

// level is one open indentation level: the column of the enclosing line and
// whether closing it owes an extra terminator.
type level struct {
	column    int
	semicolon bool
}

// dedentFunc is notified after each dedent with the line index, the target
// column, the number of closed levels and the column of the last closed level
// (-1 if none).
type dedentFunc func(idx, target, closed, lastColumn int)

type indenter struct {
	rules    *rules.RuleSet
	emit     func(code diag.Code, sev diag.Severity, idx, col int, msg string)
	onDedent dedentFunc

	stack        []level
	old          int
	addSemicolon bool
	// opened is true when the last emitted line appended indent_begin
	opened     bool
	openedAt   int
	openedCol  int
	onlyFiller bool
	out        []string
}

func newIndenter(rs *rules.RuleSet, capacity int) *indenter {
	return &indenter{
		rules: rs,
		out:   make([]string, 0, capacity),
		emit:  func(diag.Code, diag.Severity, int, int, string) {},
	}
}

func (in *indenter) run(lines []string) []string {
	for idx, raw := range lines {
		in.line(idx, raw)
	}
	in.checkEmptyBlock(0)
	closing, _, _ := in.dedent(0)
	in.out = append(in.out, closing...)
	return in.out
}

func (in *indenter) line(idx int, raw string) {
	rs := in.rules
	line := strings.TrimRightFunc(raw, unicode.IsSpace)
	stripped := strings.TrimLeftFunc(line, unicode.IsSpace)
	if stripped == "" || (rs.Placeholder != "" && stripped == rs.Placeholder) {
		if stripped != "" && in.opened {
			in.onlyFiller = true
		}
		if !rs.RemoveEmptyLines {
			in.out = append(in.out, "")
		}
		return
	}

	indent := leadingWidth(line)
	in.checkEmptyBlock(indent)
	switch diff := indent - in.old; {
	case diff > 0:
		if !in.opened {
			in.emit(diag.IndentWithoutBlock, diag.SevInfo, idx, indent,
				"indentation increases after a line that opened no block")
		}
		in.stack = append(in.stack, level{column: in.old, semicolon: in.addSemicolon})
		in.addSemicolon = false
	case diff < 0:
		closing, closed, last := in.dedent(indent)
		if last != indent {
			in.emit(diag.IndentUnaligned, diag.SevWarning, idx, indent,
				"dedent does not return to an enclosing indentation level")
		}
		if in.onDedent != nil {
			in.onDedent(idx, indent, closed, last)
		}
		in.out = append(in.out, closing...)
	}

	line = rs.ApplyReplaces(line)

	in.opened = false
	if strings.HasSuffix(line, ":") {
		notBlock := rs.IsNotBlock(stripped)
		if !rs.KeepsColon(stripped) {
			line = line[:len(line)-1]
		}
		if rs.NeedsSemicolonAfterBlock(line) {
			in.addSemicolon = true
		}
		if !notBlock {
			line += rs.IndentBegin
			in.opened = rs.IndentBegin != ""
			in.openedAt, in.openedCol, in.onlyFiller = idx, indent, false
		}
	} else if !rs.SuppressesSemicolon(line) {
		line += rs.Semicolon
	}

	in.old = indent
	in.out = append(in.out, line)
}

// checkEmptyBlock reports an opened block whose next content line, at
// column indent, is not indented past it. No level was pushed for it, so
// its indent_end is never emitted.
func (in *indenter) checkEmptyBlock(indent int) {
	if !in.opened || indent > in.old {
		return
	}
	msg := "block has no indented body; its close is never emitted"
	if in.onlyFiller {
		msg = fmt.Sprintf("block holds only %q; its close is never emitted", in.rules.Placeholder)
	}
	in.emit(diag.IndentEmptyBlock, diag.SevInfo, in.openedAt, in.openedCol, msg)
	in.opened = false
}

// dedent pops every level whose column is not less than target and returns
// the closing run as output lines, one indent_end per popped level. If the
// last popped level owes a terminator, it follows the final indent_end.
// last is the column of the last popped level, or -1.
func (in *indenter) dedent(target int) (lines []string, closed, last int) {
	last = -1
	semicolon := false
	for len(in.stack) > 0 {
		top := in.stack[len(in.stack)-1]
		if top.column < target {
			break
		}
		in.stack = in.stack[:len(in.stack)-1]
		semicolon = top.semicolon
		last = top.column
		closed++
		lines = append(lines, in.rules.IndentEnd)
	}
	if semicolon {
		lines[len(lines)-1] += in.rules.Semicolon
	}
	return lines, closed, last
}

// leadingWidth counts the leading whitespace characters of line.
func leadingWidth(line string) int {
	n := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}
