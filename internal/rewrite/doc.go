// Package rewrite turns indentation-structured text into brace-delimited
// text.
//
// A Rewriter runs four passes over the line buffer, in order:
//
//  1. tabs     – every tab becomes eight spaces
//  2. join     – lines ending with the continuation marker are concatenated
//     with the next line; one empty line is emitted per absorbed fragment so
//     line numbers stay aligned
//  3. comments – the first comment marker outside a double-quoted string is
//     cut off together with the rest of the line
//  4. indent   – block delimiters and statement terminators are derived from
//     indentation using an indent stack; the closes of a dedent are
//     emitted on lines of their own before the line that dedents
//
// What is emitted is driven entirely by the rules.RuleSet given to New.
// Input that is not well formed is never rejected: dedents to columns that
// match no open level close down to the nearest enclosing one. Such spots
// are reported through Options.Reporter without changing the output.
package rewrite
