package trace

import (
	"fmt"
	"strings"
	"time"
)

// Scope is the granularity of an event. Coarser scopes have lower values.
type Scope uint8

const (
	ScopeRun  Scope = iota + 1 // one CLI invocation
	ScopeFile                  // one input file
	ScopePass                  // one rewrite pass
	ScopeLine                  // per-line marks such as dedents
)

var scopeNames = [...]string{"", "run", "file", "pass", "line"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && s > 0 {
		return scopeNames[s]
	}
	return "unknown"
}

// Level names the finest scope that is still recorded. The run scope is
// recorded at every level except LevelOff.
type Level uint8

const (
	LevelOff  Level = 0
	LevelFile Level = Level(ScopeFile)
	LevelPass Level = Level(ScopePass)
	LevelLine Level = Level(ScopeLine)
)

func (l Level) String() string {
	if l == LevelOff {
		return "off"
	}
	return Scope(l).String()
}

// Records reports whether events of scope s pass the level.
func (l Level) Records(s Scope) bool {
	return l != LevelOff && s <= Scope(l)
}

// ParseLevel accepts off, file, pass and line in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return LevelOff, nil
	case "file":
		return LevelFile, nil
	case "pass":
		return LevelPass, nil
	case "line":
		return LevelLine, nil
	}
	return LevelOff, fmt.Errorf("unknown trace level %q (expected off|file|pass|line)", s)
}

// Kind distinguishes span boundaries from instant marks.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindMark
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindMark:
		return "mark"
	}
	return "unknown"
}

// Event is one record handed to a Tracer. Seq and At are filled in by the
// tracer when the event is written.
type Event struct {
	Seq    uint64
	At     time.Duration // since the tracer was created
	Kind   Kind
	Scope  Scope
	Span   uint64
	Parent uint64
	Name   string
	Detail string
	Took   time.Duration // end events only
	Attrs  map[string]string
}

// Tracer receives events. Implementations must be safe for concurrent use.
type Tracer interface {
	Level() Level
	Emit(ev Event)
	Close() error
}

type nopTracer struct{}

func (nopTracer) Level() Level { return LevelOff }

func (nopTracer) Emit(Event) {}

func (nopTracer) Close() error { return nil }

// Nop records nothing.
var Nop Tracer = nopTracer{}
