package model

import "fmt"

// Position records a location in grammar or generated-parser source text.
// It mirrors the field shape the teacher tool tracks on every matched
// rune (line/col/offset), so the same triple can be threaded from the
// front-end through the checker and into emitted code comments.
type Position struct {
	Line   int // 1-based line number
	Col    int // 1-based column, counted in runes from the start of the line
	Offset int // 0-based byte offset
}

// String formats a position as "line:col (offset)".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d (%d)", p.Line, p.Col, p.Offset)
}
