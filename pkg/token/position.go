package token

import "fmt"

// Position represents a location in the source code.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, tabs count as several columns
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Source is a named piece of program text shared by every lexeme cut from it.
type Source struct {
	Name string
	Text string
}

// NewSource wraps text for lexing.
func NewSource(name, text string) *Source {
	return &Source{Name: name, Text: text}
}

// Lexeme is a view into a Source: the exact characters a token was read from.
type Lexeme struct {
	Source *Source
	Offset int
	Length int
}

// Text returns the characters covered by the lexeme.
func (l Lexeme) Text() string {
	if l.Source == nil {
		return ""
	}
	return l.Source.Text[l.Offset : l.Offset+l.Length]
}

// End returns the offset just past the lexeme.
func (l Lexeme) End() int {
	return l.Offset + l.Length
}

// Adjoins reports whether next starts exactly where l ends in the same source.
func (l Lexeme) Adjoins(next Lexeme) bool {
	return l.Source != nil && l.Source == next.Source && l.End() == next.Offset
}
