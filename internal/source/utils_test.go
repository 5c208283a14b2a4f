package source

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeNewlines(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		changed bool
	}{
		{"a\nb", "a\nb", false},
		{"a\r\nb\r\n", "a\nb\n", true},
		{"a\rb", "a\nb", true},
		{"a\r\r\nb", "a\n\nb", true},
	}
	for _, tc := range cases {
		got, changed := normalizeNewlines([]byte(tc.in))
		if string(got) != tc.want || changed != tc.changed {
			t.Errorf("normalizeNewlines(%q) = %q, %v; want %q, %v", tc.in, got, changed, tc.want, tc.changed)
		}
	}
}

func TestDecodeTextBOM(t *testing.T) {
	plain := []byte("if x:\n")
	out, flags, err := decodeText(plain)
	if err != nil || flags != 0 || !bytes.Equal(out, plain) {
		t.Fatalf("plain text should pass through, got %q flags=%d err=%v", out, flags, err)
	}

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, plain...)
	out, flags, err = decodeText(withBOM)
	if err != nil {
		t.Fatalf("decodeText: %v", err)
	}
	if flags != FileHadBOM || string(out) != "if x:\n" {
		t.Fatalf("utf-8 BOM: got %q flags=%d", out, flags)
	}

	// "hi\n" in UTF-16LE with BOM
	utf16 := []byte{0xFF, 0xFE, 'h', 0, 'i', 0, '\n', 0}
	out, flags, err = decodeText(utf16)
	if err != nil {
		t.Fatalf("decodeText utf16: %v", err)
	}
	if flags != FileHadBOM|FileUTF16 || string(out) != "hi\n" {
		t.Fatalf("utf-16 BOM: got %q flags=%d", out, flags)
	}
}

func TestFileSetLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.pyc")
	if err := os.WriteFile(path, []byte("a:\r\n    b\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("expected FileNormalizedCRLF flag")
	}
	if got := f.LineCount(); got != 3 {
		t.Fatalf("LineCount = %d, want 3 (trailing newline keeps an empty tail)", got)
	}
	if got := f.GetLine(2); got != "    b" {
		t.Errorf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(0); got != "" {
		t.Errorf("GetLine(0) = %q, want empty", got)
	}
	if got := f.GetLine(42); got != "" {
		t.Errorf("GetLine(42) = %q, want empty", got)
	}
	if byPath, ok := fs.GetByPath(path); !ok || byPath.ID != id {
		t.Errorf("GetByPath did not find the loaded file")
	}
}

func TestFileSetLoadMissing(t *testing.T) {
	fs := NewFileSet()
	if _, err := fs.Load(filepath.Join(t.TempDir(), "missing.pyc")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if fs.Len() != 0 {
		t.Fatalf("failed load must not add a file")
	}
}

func TestAddVirtualHashesContent(t *testing.T) {
	fs := NewFileSet()
	a := fs.Get(fs.AddVirtual("a", []byte("x\r\n")))
	b := fs.Get(fs.AddVirtual("b", []byte("x\n")))
	if a.Hash != b.Hash {
		t.Fatal("virtual files are normalised before hashing")
	}
	if a.Flags != FileVirtual {
		t.Fatalf("flags = %d, want FileVirtual", a.Flags)
	}
}
