package cache

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"stupyd/internal/diag"
	"stupyd/internal/source"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDir(filepath.Join(t.TempDir(), "stupyd"))
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	content := sha256.Sum256([]byte("if x:\n    foo()\n"))
	key := Key("fp", content)

	var miss Payload
	if ok, err := c.Get(key, &miss); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	d := diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.IndentUnaligned,
		Message:  "unaligned",
		Path:     "a.pyc",
		Pos:      source.LineCol{Line: 3, Col: 5},
	}.WithNote("n")
	lines := []string{"if (x) {", "    foo();", "}"}
	if err := c.Put(key, NewPayload("fp", content, lines, []diag.Diagnostic{d})); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got Payload
	ok, err := c.Get(key, &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !slices.Equal(got.Lines, lines) || got.Rules != "fp" || got.ContentHash != Digest(content) {
		t.Fatalf("payload mismatch: %+v", got)
	}
	diags := got.Diags("b.pyc")
	if len(diags) != 1 || diags[0].Path != "b.pyc" || diags[0].Code != diag.IndentUnaligned ||
		diags[0].Pos != d.Pos || len(diags[0].Notes) != 1 {
		t.Fatalf("diagnostics not restored: %+v", diags)
	}

	leftovers, err := filepath.Glob(filepath.Join(c.Dir(), "out", "*", "tmp-*"))
	if err != nil || len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestDiskCacheSchemaMismatchIsMiss(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	key := Key("fp", sha256.Sum256([]byte("x")))
	p := NewPayload("fp", [32]byte{}, []string{"x;"}, nil)
	p.Schema = schemaVersion + 1
	if err := c.Put(key, p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var got Payload
	if ok, err := c.Get(key, &got); ok || err != nil {
		t.Fatalf("expected miss on schema mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestKeyDependsOnRules(t *testing.T) {
	content := sha256.Sum256([]byte("x"))
	if Key("a", content) == Key("b", content) {
		t.Fatal("different fingerprints must give different keys")
	}
	if Key("a", content).IsZero() {
		t.Fatal("key must not be zero")
	}
}

func TestDropAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "stupyd")
	c, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	key := Key("fp", sha256.Sum256([]byte("x")))
	if err := c.Put(key, NewPayload("fp", [32]byte{}, nil, nil)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("cache dir still present: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll on missing dir: %v", err)
	}
}

func TestDefaultDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir("stupyd")
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "stupyd") {
		t.Fatalf("DefaultDir = %q", dir)
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *DiskCache
	if err := c.Put(Digest{}, &Payload{}); err != nil {
		t.Fatal(err)
	}
	if ok, err := c.Get(Digest{}, &Payload{}); ok || err != nil {
		t.Fatal("nil cache must miss")
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
}
