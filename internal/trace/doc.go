// Package trace records where a stupyd run spends its time.
//
// Spans nest run > file > pass, and the indent pass adds line marks for
// each dedent. The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeFile, path)
//	defer span.End("")
//
// --trace-level picks the finest scope written (off, file, pass, line).
// Output goes to stderr for "-", otherwise to the named file; files
// ending in .ndjson get one JSON object per line.
package trace
