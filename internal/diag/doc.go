// Package diag defines the diagnostic model shared by the rewriter and the CLI.
//
// # Purpose
//
//   - Capture notable but non-fatal findings about the input (unaligned
//     dedents, dangling continuations) without changing the rewritten text.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// # Scope
//
// Package diag does not perform any formatting or IO. Rendering lives in
// internal/diagfmt.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Path and Pos – the file and 1-based line/column of the finding.
//   - Notes – optional extra lines of context.
//
// All fields are exported so diagnostics can be stored in the result cache.
package diag
