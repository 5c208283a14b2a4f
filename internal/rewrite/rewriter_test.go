package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"stupyd/internal/diag"
	"stupyd/internal/observ"
	"stupyd/internal/rules"
	"stupyd/internal/trace"
)

func newCPP(t *testing.T) *Rewriter {
	t.Helper()
	rw, err := New(rules.CPP())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rw
}

func withRules(t *testing.T, mutate func(*rules.Config)) *Rewriter {
	t.Helper()
	cfg, err := rules.BuiltinConfig(rules.DefaultName)
	if err != nil {
		t.Fatalf("BuiltinConfig: %v", err)
	}
	mutate(&cfg)
	rs, err := rules.Compile("test", cfg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rw, err := New(rs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rw
}

func TestRewriteCPP(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "if block",
			in:   "if x:\n    foo()\n",
			want: "if (x) {\n    foo();\n}\n",
		},
		{
			name: "comment stripped before terminator",
			in:   "x = 1 // hi",
			want: "x = 1;\n",
		},
		{
			name: "tabs expand to eight spaces",
			in:   "if x:\n\tfoo()\n",
			want: "if (x) {\n        foo();\n}\n",
		},
		{
			name: "struct close gets terminator in multi-level dedent",
			in: "struct point:\n" +
				"    int x\n" +
				"    union u:\n" +
				"        int a\n" +
				"        int b\n" +
				"int y\n",
			want: "struct point {\n" +
				"    int x;\n" +
				"    union u {\n" +
				"        int a;\n" +
				"        int b;\n" +
				"}\n" +
				"};\n" +
				"int y;\n",
		},
		{
			name: "access specifier keeps colon and opens nothing",
			in: "class A:\n" +
				"    public:\n" +
				"    int x\n" +
				"    void f():\n" +
				"        return\n" +
				"int main():\n" +
				"    return 0\n",
			want: "class A {\n" +
				"    public:\n" +
				"    int x;\n" +
				"    void f() {\n" +
				"        return;\n" +
				"}\n" +
				"};\n" +
				"int main() {\n" +
				"    return 0;\n" +
				"}\n",
		},
		{
			name: "switch keeps case colons",
			in: "switch c:\n" +
				"    case 1:\n" +
				"        f()\n" +
				"        break\n" +
				"    default:\n" +
				"        g()\n",
			want: "switch (c) {\n" +
				"    case 1: {\n" +
				"        f();\n" +
				"        break;\n" +
				"}\n" +
				"    default: {\n" +
				"        g();\n" +
				"}\n" +
				"}\n",
		},
		{
			name: "placeholder behaves like a blank line",
			in:   "if x:\n    foo()\n    pass\nbar()\n",
			want: "if (x) {\n    foo();\n}\nbar();\n",
		},
		{
			name: "block holding only a placeholder stays open",
			in:   "if x:\n    pass\ny()\n",
			want: "if (x) {\ny();\n",
		},
		{
			name: "directive after a dedent starts its own line",
			in:   "#ifdef X\nif a:\n    b()\n#endif\n",
			want: "#ifdef X\nif (a) {\n    b();\n}\n#endif\n",
		},
		{
			name: "two-level dedent into an indented line",
			in:   "if a:\n    if b:\n        c()\n    d()\ne()\n",
			want: "if (a) {\n    if (b) {\n        c();\n}\n    d();\n}\ne();\n",
		},
		{
			name: "three-level dedent closes contiguously",
			in:   "if a:\n    if b:\n        if c:\n            d()\ne()\n",
			want: "if (a) {\n    if (b) {\n        if (c) {\n            d();\n}\n}\n}\ne();\n",
		},
		{
			name: "continuation joins and pads",
			in:   "x = a + \\\n    b\ny = 2\n",
			want: "x = a +     b;\ny = 2;\n",
		},
		{
			name: "no_semicolon patterns",
			in:   "#include <stdio.h>\nint a;\nf(1,\n  2)\n",
			want: "#include <stdio.h>\nint a;\nf(1,\n  2);\n}\n",
		},
		{
			name: "empty input",
			in:   "",
			want: "\n",
		},
	}
	rw := newCPP(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rw.RewriteString(tc.in); got != tc.want {
				t.Fatalf("RewriteString mismatch:\nwant %q\ngot  %q", tc.want, got)
			}
		})
	}
}

func TestRewriteEmptyLines(t *testing.T) {
	in := "a\n\nb\n"
	if got := newCPP(t).RewriteString(in); got != "a;\nb;\n" {
		t.Errorf("with removal: %q", got)
	}
	keep := withRules(t, func(c *rules.Config) { c.RemoveEmptyLines = false })
	if got := keep.RewriteString(in); got != "a;\n\nb;\n\n" {
		t.Errorf("without removal: %q", got)
	}
}

func TestRewriteKeepsLineNumbersAcrossContinuations(t *testing.T) {
	keep := withRules(t, func(c *rules.Config) { c.RemoveEmptyLines = false })
	got := keep.RewriteString("x = a + \\\n    b\ny = 2\n")
	want := "x = a +     b;\n\ny = 2;\n\n"
	if got != want {
		t.Fatalf("want %q\ngot  %q", want, got)
	}
}

func TestRewriteCommentsInsideStrings(t *testing.T) {
	rw := newCPP(t)
	cases := []struct {
		in   string
		want string
	}{
		// marker after the literal is a comment; `"$` then suppresses the terminator
		{`s = "a // b" // c`, `s = "a // b"` + "\n"},
		// marker only inside the literal
		{`puts("http://x")`, `puts("http://x");` + "\n"},
		// the literal regex spans first to last quote, so this comment survives
		{`x = "a" // "b"`, `x = "a" // "b"` + "\n"},
	}
	for _, tc := range cases {
		if got := rw.RewriteString(tc.in); got != tc.want {
			t.Errorf("RewriteString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRewriteCustomDelimiters(t *testing.T) {
	rw := withRules(t, func(c *rules.Config) {
		c.IndentBegin = " begin"
		c.IndentEnd = "end"
		c.Semicolon = "."
		c.LineComment = "#"
		c.NoSemicolon = nil
		c.Replaces = nil
		c.SemicolonAfterIndent = []string{"^record"}
	})
	in := "record r:\n    a # field\nloop:\n    b\n"
	want := "record r begin\n    a.\nend.\nloop begin\n    b.\nend\n"
	if got := rw.RewriteString(in); got != want {
		t.Fatalf("want %q\ngot  %q", want, got)
	}
}

func TestRewriteDisabledStages(t *testing.T) {
	rw := withRules(t, func(c *rules.Config) {
		c.LineComment = ""
		c.LineContinuation = ""
	})
	got := rw.RewriteString("x = 1 // kept \\\ny = 2\n")
	want := "x = 1 // kept \\;\ny = 2;\n"
	if got != want {
		t.Fatalf("want %q\ngot  %q", want, got)
	}
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	in := []string{"if x:", "\tfoo() // c", ""}
	orig := slices.Clone(in)
	newCPP(t).Rewrite(context.Background(), in, Options{})
	if !slices.Equal(in, orig) {
		t.Fatalf("input mutated: %q", in)
	}
}

func TestRewriteReportsLenientInput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		code diag.Code
		line uint32
		col  uint32
		want string
	}{
		{
			name: "unaligned dedent",
			in:   "if a:\n        b()\n    c()\n",
			code: diag.IndentUnaligned,
			line: 3, col: 5,
			want: "if (a) {\n        b();\n    c();\n}\n",
		},
		{
			name: "indent without block",
			in:   "x = 1\n    y = 2\n",
			code: diag.IndentWithoutBlock,
			line: 2, col: 5,
			want: "x = 1;\n    y = 2;\n}\n",
		},
		{
			name: "block holding only a placeholder",
			in:   "class A:\n    pass\nx = 1\n",
			code: diag.IndentEmptyBlock,
			line: 1, col: 1,
			want: "class A {\nx = 1;\n",
		},
		{
			name: "opener without a body at end of input",
			in:   "x = 1\nif y:\n",
			code: diag.IndentEmptyBlock,
			line: 2, col: 1,
			want: "x = 1;\nif (y) {\n",
		},
		{
			name: "continuation at end of input",
			in:   "a \\",
			code: diag.LineContinuationAtEOF,
			line: 1, col: 1,
			want: "a;\n",
		},
	}
	rw := newCPP(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bag := diag.NewBag(8)
			out := rw.Rewrite(context.Background(), strings.Split(tc.in, "\n"), Options{
				Path:     "in.pyc",
				Reporter: diag.BagReporter{Bag: bag},
			})
			if got := string(Join(out)); got != tc.want {
				t.Fatalf("output changed by diagnostics:\nwant %q\ngot  %q", tc.want, got)
			}
			if bag.Len() != 1 {
				t.Fatalf("expected 1 diagnostic, got %+v", bag.Items())
			}
			d := bag.Items()[0]
			if d.Code != tc.code || d.Path != "in.pyc" || d.Pos.Line != tc.line || d.Pos.Col != tc.col {
				t.Fatalf("unexpected diagnostic %+v", d)
			}
		})
	}
}

func TestRewriteCleanInputReportsNothing(t *testing.T) {
	bag := diag.NewBag(8)
	newCPP(t).Rewrite(context.Background(), strings.Split("if x:\n    y()\nz()\n", "\n"), Options{
		Reporter: diag.BagReporter{Bag: bag},
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestRewriteTimingsAndTrace(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewWriter(&buf, trace.LevelLine, false)
	ctx := trace.WithTracer(context.Background(), tr)
	timer := observ.NewTimer()

	newCPP(t).Rewrite(ctx, strings.Split("if x:\n    if y:\n        z()\nw()\n", "\n"), Options{Timer: timer})

	var names []string
	for _, p := range timer.Report().Phases {
		names = append(names, p.Name)
	}
	if want := []string{PassTabs, PassJoin, PassComments, PassIndent}; !slices.Equal(names, want) {
		t.Fatalf("phases = %v, want %v", names, want)
	}
	out := buf.String()
	if !strings.Contains(out, "dedent (line 4 to column 0 closes 2)") {
		t.Fatalf("trace missing dedent point:\n%s", out)
	}
}

func TestNewRejectsNil(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil rule set")
	}
}

// genBlocks builds a random, well-formed program where every indentation
// increase follows a block header.
func genBlocks(r *rand.Rand, depth int, indent string, sb *strings.Builder, n *int) {
	stmts := 1 + r.Intn(3)
	for range stmts {
		*n++
		if depth < 4 && r.Intn(3) == 0 {
			fmt.Fprintf(sb, "%sif c%d:\n", indent, *n)
			genBlocks(r, depth+1, indent+"    ", sb, n)
			continue
		}
		fmt.Fprintf(sb, "%ss%d()\n", indent, *n)
	}
}

func TestRewriteBalancesDelimiters(t *testing.T) {
	rw := newCPP(t)
	r := rand.New(rand.NewSource(7))
	for i := range 50 {
		var sb strings.Builder
		n := 0
		genBlocks(r, 0, "", &sb, &n)
		out := rw.RewriteString(sb.String())

		opens := strings.Count(out, "{")
		closes := strings.Count(out, "}")
		if opens != closes {
			t.Fatalf("program %d: %d opens vs %d closes\n%s\n---\n%s", i, opens, closes, sb.String(), out)
		}
		for _, line := range strings.Split(out, "\n") {
			trimmed := strings.TrimLeft(line, "}")
			if strings.HasPrefix(strings.TrimSpace(trimmed), "s") && !strings.HasSuffix(line, "();") {
				t.Fatalf("program %d: statement without exactly one terminator: %q", i, line)
			}
			if strings.HasSuffix(line, ";;") {
				t.Fatalf("program %d: doubled terminator: %q", i, line)
			}
		}
	}
}
