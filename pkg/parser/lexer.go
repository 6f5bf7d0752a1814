package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/tern/pkg/token"
)

// DefaultTabWidth is the number of columns a tab advances the position by.
const DefaultTabWidth = 4

const eof rune = -1

// punctuation is the full single-character operator alphabet.
const punctuation = "+-*/.,;:()[]{}<>=!&"

// Lexer tokenizes tern source. Tokens are produced on demand by Next.
type Lexer struct {
	src      *token.Source
	input    string
	pos      int  // offset of ch
	readPos  int  // offset after ch
	ch       rune // current char under examination, eof at the end
	line     int  // line of ch (1-based)
	col      int  // column of ch (1-based)
	tabWidth int
}

// LexerOption configures a Lexer.
type LexerOption func(*Lexer)

// WithTabWidth sets how many columns a tab advances. Values below 1 are
// ignored.
func WithTabWidth(n int) LexerOption {
	return func(l *Lexer) {
		if n > 0 {
			l.tabWidth = n
		}
	}
}

// NewLexer creates a new Lexer reading src.
func NewLexer(src *token.Source, opts ...LexerOption) *Lexer {
	l := &Lexer{
		src:      src,
		input:    src.Text,
		line:     1,
		col:      1,
		ch:       eof,
		tabWidth: DefaultTabWidth,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.readChar()
	return l
}

// readChar advances to the next character, moving the position past the
// current one first.
func (l *Lexer) readChar() {
	switch l.ch {
	case '\n':
		l.line++
		l.col = 1
	case '\t':
		l.col += l.tabWidth
	case eof:
	default:
		l.col++
	}

	if l.readPos >= len(l.input) {
		l.pos = len(l.input)
		l.ch = eof
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.pos = l.readPos
	l.readPos += w
	l.ch = r
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) lexeme(start int) token.Lexeme {
	return token.Lexeme{Source: l.src, Offset: start, Length: l.pos - start}
}

// Next returns the next token. Once the input is exhausted it keeps
// returning an EOF token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()

	pos := l.currentPos()
	switch {
	case l.ch == eof:
		return token.Token{Kind: token.EOF, Pos: pos, Lexeme: l.lexeme(l.pos)}, nil
	case isIdentStart(l.ch):
		return l.readIdentifier(pos), nil
	case isDigit(l.ch):
		return l.readNumber(pos)
	case l.ch == '"':
		return l.readString(pos)
	case isPunct(l.ch):
		return l.readPunct(pos), nil
	}

	ch := l.ch
	l.readChar()
	return token.Token{}, &LexError{
		Kind:    LexUnexpectedCharacter,
		Pos:     pos,
		Message: fmt.Sprintf(ErrUnexpectedChar, ch),
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch != eof && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier(pos token.Position) token.Token {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	tok := token.Token{Pos: pos, Lexeme: l.lexeme(start)}
	text := tok.Lexeme.Text()
	if kw, ok := token.LookupKeyword(text); ok {
		tok.Kind = token.KEYWORD
		tok.Keyword = kw
		return tok
	}
	tok.Kind = token.IDENT
	tok.Text = text
	return tok
}

// readNumber reads digits with optional `_` separators, an optional fraction
// and an optional exponent. The fraction is only taken when a digit follows
// the dot, so `0..n` lexes as a range.
func (l *Lexer) readNumber(pos token.Position) (token.Token, error) {
	start := l.pos
	floating := false

	l.readDigits()
	if l.ch == '.' && isDigit(l.peekChar()) {
		floating = true
		l.readChar()
		l.readDigits()
	}
	if l.ch == 'e' || l.ch == 'E' {
		floating = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		l.readDigits()
	}

	tok := token.Token{Pos: pos, Lexeme: l.lexeme(start)}
	text := tok.Lexeme.Text()
	clean := strings.ReplaceAll(text, "_", "")

	if floating {
		f, err := strconv.ParseFloat(clean, 32)
		if err != nil {
			return token.Token{}, invalidNumber(pos, text)
		}
		tok.Kind = token.FLOAT
		tok.Float = float32(f)
		return tok, nil
	}

	n, err := strconv.ParseInt(clean, 10, 32)
	if err != nil {
		return token.Token{}, invalidNumber(pos, text)
	}
	tok.Kind = token.INT
	tok.Int = int32(n)
	return tok, nil
}

func (l *Lexer) readDigits() {
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
}

func invalidNumber(pos token.Position, text string) *LexError {
	return &LexError{
		Kind:    LexInvalidNumber,
		Pos:     pos,
		Message: fmt.Sprintf(ErrInvalidNumber, text),
	}
}

// readString reads a quoted string verbatim. There are no escape sequences.
func (l *Lexer) readString(pos token.Position) (token.Token, error) {
	start := l.pos
	l.readChar() // opening quote
	for l.ch != '"' {
		if l.ch == eof {
			return token.Token{}, &LexError{
				Kind:    LexUnexpectedEndOfSource,
				Pos:     l.currentPos(),
				Message: ErrUnterminatedString,
			}
		}
		l.readChar()
	}
	text := l.input[start+1 : l.pos]
	l.readChar() // closing quote

	return token.Token{
		Kind:   token.STRING,
		Text:   text,
		Pos:    pos,
		Lexeme: l.lexeme(start),
	}, nil
}

func (l *Lexer) readPunct(pos token.Position) token.Token {
	start := l.pos
	ch := byte(l.ch)
	spacing := token.Single
	if isPunct(l.peekChar()) {
		spacing = token.Joint
	}
	l.readChar()
	return token.Token{
		Kind:    token.PUNCT,
		Punct:   ch,
		Spacing: spacing,
		Pos:     pos,
		Lexeme:  l.lexeme(start),
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isPunct(ch rune) bool {
	return ch != eof && ch < utf8.RuneSelf && strings.ContainsRune(punctuation, ch)
}

// Tokenize lexes the entire input, including the trailing EOF token.
func Tokenize(src *token.Source, opts ...LexerOption) ([]token.Token, error) {
	l := NewLexer(src, opts...)
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.IsEOF() {
			return tokens, nil
		}
	}
}
