package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var spanIDs atomic.Uint64

type (
	tracerKey struct{}
	spanKey   struct{}
)

// WithTracer returns ctx carrying t.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

// Span is an open operation. A nil *Span is valid and records nothing.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	attrs   map[string]string
}

// Start opens a span under the span carried by ctx and returns a context
// carrying the new span. When the tracer's level drops scope, ctx is
// returned unchanged together with a nil span, so children attach to the
// nearest recorded ancestor.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	t := FromContext(ctx)
	if !t.Level().Records(scope) {
		return ctx, nil
	}
	s := &Span{
		tracer:  t,
		id:      spanIDs.Add(1),
		parent:  spanFrom(ctx).ID(),
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(Event{Kind: KindBegin, Scope: scope, Span: s.id, Parent: s.parent, Name: name})
	return context.WithValue(ctx, spanKey{}, s), s
}

func spanFrom(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// ID returns the span id, 0 for a nil span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Set attaches an attribute reported with the end event.
func (s *Span) Set(key, value string) {
	if s == nil {
		return
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string, 2)
	}
	s.attrs[key] = value
}

// Mark records a line-scope event inside s.
func (s *Span) Mark(name, detail string) {
	if s == nil || !s.tracer.Level().Records(ScopeLine) {
		return
	}
	s.tracer.Emit(Event{Kind: KindMark, Scope: ScopeLine, Parent: s.id, Name: name, Detail: detail})
}

// End closes s and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	took := time.Since(s.started)
	s.tracer.Emit(Event{
		Kind:   KindEnd,
		Scope:  s.scope,
		Span:   s.id,
		Parent: s.parent,
		Name:   s.name,
		Detail: detail,
		Took:   took,
		Attrs:  s.attrs,
	})
	return took
}
