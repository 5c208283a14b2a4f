package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"stupyd/internal/diag"
	"stupyd/internal/source"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// DiskCache хранит результаты преобразования по ключу на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiagRecord is a diagnostic without its path, which is restored on a hit.
type DiagRecord struct {
	Severity uint8
	Code     uint16
	Message  string
	Line     uint32
	Col      uint32
	Notes    []string
}

// Payload is one cached conversion result.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Rules       string // rule table fingerprint
	ContentHash Digest
	Lines       []string
	Diagnostics []DiagRecord
}

// NewPayload builds a payload for the current schema.
func NewPayload(fingerprint string, content [32]byte, lines []string, diags []diag.Diagnostic) *Payload {
	p := &Payload{
		Schema:      schemaVersion,
		Rules:       fingerprint,
		ContentHash: content,
		Lines:       lines,
	}
	if len(diags) > 0 {
		p.Diagnostics = make([]DiagRecord, len(diags))
		for i, d := range diags {
			rec := DiagRecord{
				Severity: uint8(d.Severity),
				Code:     uint16(d.Code),
				Message:  d.Message,
				Line:     d.Pos.Line,
				Col:      d.Pos.Col,
			}
			for _, n := range d.Notes {
				rec.Notes = append(rec.Notes, n.Msg)
			}
			p.Diagnostics[i] = rec
		}
	}
	return p
}

// Diags restores the cached diagnostics under path.
func (p *Payload) Diags(path string) []diag.Diagnostic {
	if len(p.Diagnostics) == 0 {
		return nil
	}
	out := make([]diag.Diagnostic, len(p.Diagnostics))
	for i, rec := range p.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(rec.Severity),
			Code:     diag.Code(rec.Code),
			Message:  rec.Message,
			Path:     path,
			Pos:      source.LineCol{Line: rec.Line, Col: rec.Col},
		}
		for _, n := range rec.Notes {
			d = d.WithNote(n)
		}
		out[i] = d
	}
	return out
}

// DefaultDir returns the cache directory for app under $XDG_CACHE_HOME,
// falling back to ~/.cache.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open initializes and returns a disk cache at the standard location.
func Open(app string) (*DiskCache, error) {
	dir, err := DefaultDir(app)
	if err != nil {
		return nil, err
	}
	return OpenDir(dir)
}

// OpenDir initializes a disk cache rooted at dir.
func OpenDir(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не копить всё в одном каталоге
	return filepath.Join(c.dir, "out", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. Entries written
// by another schema version count as misses.
func (c *DiskCache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every entry. A missing cache directory is not an error.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим целиком
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
