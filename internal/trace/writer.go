package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Writer formats events onto an io.Writer, one line per event, either as
// text or as NDJSON.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	level  Level
	json   bool
	start  time.Time
	seq    uint64
}

// NewWriter returns a tracer writing to w. w is never closed.
func NewWriter(w io.Writer, level Level, asJSON bool) *Writer {
	return &Writer{w: w, level: level, json: asJSON, start: time.Now()}
}

// Open returns a tracer for --trace PATH. "" and "-" mean stderr; a path
// ending in .ndjson selects JSON lines.
func Open(path string, level Level) (Tracer, error) {
	if level == LevelOff {
		return Nop, nil
	}
	if path == "" || path == "-" {
		return NewWriter(os.Stderr, level, false), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	tw := NewWriter(f, level, strings.HasSuffix(path, ".ndjson"))
	tw.closer = f
	return tw, nil
}

func (t *Writer) Level() Level { return t.level }

// Emit writes ev if its scope passes the level. Write errors are dropped.
func (t *Writer) Emit(ev Event) {
	if !t.level.Records(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	ev.Seq = t.seq
	ev.At = time.Since(t.start)
	var line []byte
	if t.json {
		line = encodeJSON(ev)
	} else {
		line = encodeText(ev)
	}
	_, _ = t.w.Write(line)
}

// Close closes the output file opened by Open.
func (t *Writer) Close() error {
	if t.closer == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.closer.Close()
	t.closer = nil
	return err
}

type jsonEvent struct {
	Seq    uint64            `json:"seq"`
	AtUS   int64             `json:"at_us"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	TookUS int64             `json:"took_us,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func encodeJSON(ev Event) []byte {
	data, err := json.Marshal(jsonEvent{
		Seq:    ev.Seq,
		AtUS:   ev.At.Microseconds(),
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.Span,
		Parent: ev.Parent,
		Name:   ev.Name,
		Detail: ev.Detail,
		TookUS: ev.Took.Microseconds(),
		Attrs:  ev.Attrs,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

// encodeText renders
//
//	[   0.000412]   > file a.pyc
//	[   0.000730]     * dedent (line 4 to column 0 closes 2)
//	[   0.000981]   < file a.pyc 569µs {cache=miss}
//
// indented by scope.
func encodeText(ev Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%11.6f] ", ev.At.Seconds())
	sb.WriteString(strings.Repeat("  ", int(ev.Scope)-1))
	switch ev.Kind {
	case KindBegin:
		sb.WriteString("> ")
	case KindEnd:
		sb.WriteString("< ")
	default:
		sb.WriteString("* ")
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", ev.Detail)
	}
	if ev.Kind == KindEnd {
		fmt.Fprintf(&sb, " %s", ev.Took.Round(time.Microsecond))
	}
	if len(ev.Attrs) > 0 {
		keys := make([]string, 0, len(ev.Attrs))
		for k := range ev.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(k + "=" + ev.Attrs[k])
		}
		sb.WriteString("}")
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
