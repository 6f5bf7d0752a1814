// Package token defines the lexical vocabulary of the tern language.
//
// Tokens are small values produced by the lexer in pkg/parser. Punctuation is
// always a single character; multi-character operators such as "->" or "<="
// are recognized by the parser from runs of Joint punctuation.
package token

import (
	"fmt"
	"strconv"
)

// Kind classifies a token.
type Kind uint8

//nolint:revive // ALL_CAPS kind names mirror the lexical categories
const (
	EOF     Kind = iota // end of source
	KEYWORD             // if, fn, let ...
	IDENT               // foo, _bar
	INT                 // 42, 1_000
	FLOAT               // 1.5, 2e10
	STRING              // "raw text"
	PUNCT               // + - * / ...
)

var kindNames = map[Kind]string{
	EOF:     "end of source",
	KEYWORD: "keyword",
	IDENT:   "identifier",
	INT:     "integer",
	FLOAT:   "float",
	STRING:  "string",
	PUNCT:   "punctuation",
}

// String returns the human readable name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Spacing tells whether a punctuation token is immediately followed by
// another punctuation character.
type Spacing uint8

const (
	// Single punctuation is followed by whitespace, a non-punctuation
	// character or the end of source.
	Single Spacing = iota
	// Joint punctuation is directly followed by another punctuation character.
	Joint
	// Triple marks the head of a three character run. The lexer never emits
	// it; it exists for callers that classify runs.
	Triple
)

// String returns the spacing name.
func (s Spacing) String() string {
	switch s {
	case Joint:
		return "joint"
	case Triple:
		return "triple"
	default:
		return "single"
	}
}

// Token is a single lexical unit. Only the payload field matching Kind is set.
type Token struct {
	Kind    Kind
	Keyword Keyword // KEYWORD
	Int     int32   // INT
	Float   float32 // FLOAT
	Text    string  // IDENT name, STRING contents
	Punct   byte    // PUNCT
	Spacing Spacing // PUNCT
	Lexeme  Lexeme
	Pos     Position
}

// IsEOF reports whether the token marks the end of source.
func (t Token) IsEOF() bool {
	return t.Kind == EOF
}

// IsPunct reports whether the token is the punctuation character c.
func (t Token) IsPunct(c byte) bool {
	return t.Kind == PUNCT && t.Punct == c
}

// IsJoint reports whether the token is the punctuation character c with
// Joint spacing.
func (t Token) IsJoint(c byte) bool {
	return t.IsPunct(c) && t.Spacing == Joint
}

// IsKeyword reports whether the token is the keyword kw.
func (t Token) IsKeyword(kw Keyword) bool {
	return t.Kind == KEYWORD && t.Keyword == kw
}

// String renders the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of source"
	case KEYWORD:
		return "keyword " + strconv.Quote(t.Keyword.String())
	case IDENT:
		return "identifier " + strconv.Quote(t.Text)
	case INT:
		return "integer " + strconv.FormatInt(int64(t.Int), 10)
	case FLOAT:
		return "float " + strconv.FormatFloat(float64(t.Float), 'g', -1, 32)
	case STRING:
		return "string " + strconv.Quote(t.Text)
	case PUNCT:
		return strconv.Quote(string(t.Punct))
	default:
		return t.Kind.String()
	}
}
