package diag

import "stupyd/internal/source"

type Note struct {
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Path     string
	Pos      source.LineCol
	Notes    []Note
}

// WithNote appends a note and returns the updated diagnostic.
func (d Diagnostic) WithNote(msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Msg: msg})
	return d
}
