package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"stupyd/internal/cache"
	"stupyd/internal/diag"
	"stupyd/internal/observ"
	"stupyd/internal/pipeline"
	"stupyd/internal/rewrite"
	"stupyd/internal/rules"
)

type recordSink struct {
	mu     sync.Mutex
	events []pipeline.Event
}

func (s *recordSink) OnEvent(ev pipeline.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordSink) count(file string, status pipeline.Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.File == file && ev.Status == status {
			n++
		}
	}
	return n
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newRewriter(t *testing.T) *rewrite.Rewriter {
	t.Helper()
	rw, err := rewrite.New(rules.CPP())
	if err != nil {
		t.Fatalf("rewrite.New: %v", err)
	}
	return rw
}

func TestConvertKeepsRequestOrder(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.pyc", "if x:\n    foo()\n"),
		writeFile(t, dir, "b.pyc", "x = 1 // hi"),
		writeFile(t, dir, "c.pyc", "if a:\n        b()\n    c()\n"),
	}
	sink := &recordSink{}
	timer := observ.NewTimer()
	res, err := pipeline.Convert(context.Background(), &pipeline.Request{
		Files:    files,
		Rewriter: newRewriter(t),
		Jobs:     2,
		Progress: sink,
		Timer:    timer,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := []string{
		"if (x) {\n    foo();\n}\n",
		"x = 1;\n",
		"if (a) {\n        b();\n    c();\n}\n",
	}
	if len(res.Files) != len(want) {
		t.Fatalf("got %d results", len(res.Files))
	}
	for i, fr := range res.Files {
		if fr.Path != files[i] {
			t.Errorf("result %d path = %q, want %q", i, fr.Path, files[i])
		}
		if got := string(fr.Output()); got != want[i] {
			t.Errorf("result %d:\nwant %q\ngot  %q", i, want[i], got)
		}
	}
	for _, f := range files {
		if sink.count(f, pipeline.StatusQueued) != 1 || sink.count(f, pipeline.StatusDone) != 1 {
			t.Errorf("%s: expected one queued and one done event", f)
		}
	}

	all := res.Diagnostics()
	if all.Len() != 1 || all.Items()[0].Code != diag.IndentUnaligned {
		t.Fatalf("diagnostics = %+v", all.Items())
	}
	if len(timer.Report().Phases) == 0 {
		t.Fatal("timer recorded nothing")
	}
}

func TestConvertFailsBeforeRewritingOnLoadError(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.pyc", "a\n")
	missing := filepath.Join(dir, "missing.pyc")
	sink := &recordSink{}

	res, err := pipeline.Convert(context.Background(), &pipeline.Request{
		Files:    []string{ok, missing},
		Rewriter: newRewriter(t),
		Progress: sink,
	})
	var loadErr *pipeline.LoadError
	if !errors.As(err, &loadErr) || loadErr.Path != missing {
		t.Fatalf("expected LoadError for %s, got %v", missing, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadError must unwrap to the os error, got %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("no results expected on load failure, got %d", len(res.Files))
	}
	if sink.count(ok, pipeline.StatusDone) != 0 {
		t.Fatal("nothing may be converted when a load fails")
	}
}

func TestConvertUsesCache(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.OpenDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("cache.OpenDir: %v", err)
	}
	in := writeFile(t, dir, "a.pyc", "if a:\n        b()\n    c()\n")
	req := &pipeline.Request{Files: []string{in}, Rewriter: newRewriter(t), Cache: c}

	first, err := pipeline.Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("first Convert: %v", err)
	}
	second, err := pipeline.Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	a, b := first.Files[0], second.Files[0]
	if a.Cached || !b.Cached {
		t.Fatalf("cached flags = %v, %v; want false, true", a.Cached, b.Cached)
	}
	if a.CacheErr != nil || b.CacheErr != nil {
		t.Fatalf("cache errors: %v, %v", a.CacheErr, b.CacheErr)
	}
	if string(a.Output()) != string(b.Output()) {
		t.Fatalf("cached output differs:\n%q\n%q", a.Output(), b.Output())
	}
	if b.Bag.Len() != 1 || b.Bag.Items()[0].Path != a.Bag.Items()[0].Path {
		t.Fatalf("cached diagnostics not restored: %+v", b.Bag.Items())
	}

	keep := withKeepEmpty(t)
	third, err := pipeline.Convert(context.Background(), &pipeline.Request{Files: []string{in}, Rewriter: keep, Cache: c})
	if err != nil {
		t.Fatalf("third Convert: %v", err)
	}
	if third.Files[0].Cached {
		t.Fatal("a different rule table must not hit the cache")
	}
}

func withKeepEmpty(t *testing.T) *rewrite.Rewriter {
	t.Helper()
	cfg, err := rules.BuiltinConfig(rules.DefaultName)
	if err != nil {
		t.Fatal(err)
	}
	cfg.RemoveEmptyLines = false
	rs, err := rules.Compile("keep", cfg)
	if err != nil {
		t.Fatal(err)
	}
	rw, err := rewrite.New(rs)
	if err != nil {
		t.Fatal(err)
	}
	return rw
}

func TestConvertWritesOutDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	in := writeFile(t, dir, "main.pyc", "x = 1\n")

	res, err := pipeline.Convert(context.Background(), &pipeline.Request{
		Files:    []string{in},
		Rewriter: newRewriter(t),
		OutDir:   out,
		Ext:      ".hpp",
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	wantPath := filepath.Join(out, "main.hpp")
	if res.Files[0].Written != wantPath {
		t.Fatalf("Written = %q, want %q", res.Files[0].Written, wantPath)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil || string(data) != "x = 1;\n" {
		t.Fatalf("output file = %q, %v", data, err)
	}
}

func TestConvertRejectsOutputCollisions(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	a := writeFile(t, dir, "m.pyc", "a\n")
	b := writeFile(t, dir, filepath.Join("sub", "m.pyc"), "b\n")

	_, err := pipeline.Convert(context.Background(), &pipeline.Request{
		Files:    []string{a, b},
		Rewriter: newRewriter(t),
		OutDir:   filepath.Join(dir, "out"),
	})
	if err == nil {
		t.Fatal("expected collision error")
	}
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		in, ext, want string
	}{
		{"src/a.pyc", "", filepath.Join("out", "a.cpp")},
		{"b", ".c", filepath.Join("out", "b.c")},
		{"x.tar.pyc", ".h", filepath.Join("out", "x.tar.h")},
	}
	for _, tc := range cases {
		if got := pipeline.OutputPath("out", tc.in, tc.ext); got != tc.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tc.in, tc.ext, got, tc.want)
		}
	}
}

func TestConvertRejectsEmptyRequest(t *testing.T) {
	if _, err := pipeline.Convert(context.Background(), nil); err == nil {
		t.Fatal("nil request must fail")
	}
	if _, err := pipeline.Convert(context.Background(), &pipeline.Request{Rewriter: newRewriter(t)}); err == nil {
		t.Fatal("empty file list must fail")
	}
}
