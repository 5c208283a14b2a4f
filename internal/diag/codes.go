package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Indentation
	IndentInfo         Code = 1000
	IndentUnaligned    Code = 1001
	IndentWithoutBlock Code = 1002
	IndentEmptyBlock   Code = 1003

	// Line structure
	LineInfo              Code = 2000
	LineContinuationAtEOF Code = 2001

	// I/O
	IOLoadFileError Code = 4001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		IndentInfo:            "Indentation information",
		IndentUnaligned:       "dedent does not match any open indentation level",
		IndentWithoutBlock:    "indentation increases after a line that opens no block",
		IndentEmptyBlock:      "block opener has no indented body and is never closed",
		LineInfo:              "Line structure information",
		LineContinuationAtEOF: "input ends inside a line continuation",
		IOLoadFileError:       "I/O load file error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IND%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LIN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
