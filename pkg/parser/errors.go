package parser

import (
	"fmt"

	"github.com/leapstack-labs/tern/pkg/token"
)

// LexErrorKind classifies lexer failures.
type LexErrorKind int

// Lexer failure kinds.
const (
	// LexUnexpectedEndOfSource means input ended inside a token.
	LexUnexpectedEndOfSource LexErrorKind = iota
	// LexInvalidNumber means numeric text could not be converted.
	LexInvalidNumber
	// LexUnexpectedCharacter means a character outside the alphabet.
	LexUnexpectedCharacter
)

// LexError represents a lexical analysis error.
type LexError struct {
	Kind    LexErrorKind
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// ParseErrorKind classifies parser failures.
type ParseErrorKind int

// Parser failure kinds.
const (
	// UnexpectedToken means a required token was absent.
	UnexpectedToken ParseErrorKind = iota
	// Custom is a structural failure described by Message.
	Custom
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Kind     ParseErrorKind
	Actual   token.Token // UnexpectedToken only
	Expected string      // optional description of what was required
	Pos      token.Position
	Message  string
}

func (e *ParseError) Error() string {
	if !e.Pos.IsValid() {
		return "parse error: " + e.Message
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected %s, expected %s"
	ErrUnexpected         = "unexpected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrInvalidNumber      = "invalid number literal %q"
	ErrUnexpectedChar     = "unexpected character %q"
	ErrMissingExpression  = "missing expression"
	ErrArrayLength        = "array length must be a non-negative integer"
)

func unexpected(tok token.Token, expected string) *ParseError {
	msg := fmt.Sprintf(ErrUnexpected, tok)
	if expected != "" {
		msg = fmt.Sprintf(ErrUnexpectedToken, tok, expected)
	}
	return &ParseError{
		Kind:     UnexpectedToken,
		Actual:   tok,
		Expected: expected,
		Pos:      tok.Pos,
		Message:  msg,
	}
}

func custom(pos token.Position, msg string) *ParseError {
	return &ParseError{Kind: Custom, Pos: pos, Message: msg}
}
