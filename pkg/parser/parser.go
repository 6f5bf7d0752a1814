// Package parser turns tern source text into the untyped tree of pkg/ast.
//
// # Usage
//
//	arena := types.NewArena()
//	items, err := parser.Parse(token.NewSource("main.tn", src), arena)
//	if err != nil {
//	    // *LexError or *ParseError
//	}
//
// Parsing stops at the first error; no partial tree is returned.
//
// # Grammar Overview
//
//	program    → item* EOF
//	item       → ["extern"] fn_decl | struct_decl | assert_stmt
//	fn_decl    → "fn" IDENT "(" fields ")" ["->" type] ( block | ";" )
//	struct_decl→ "struct" IDENT "{" fields "}"
//	fields     → [IDENT ":" type ("," IDENT ":" type)*]
//	stmt       → let | loop | for | if | yield | return | break | assert
//	           | fn_decl | block | expr [assign_op expr] ";"
//	type       → "[" [INT] "]" type | "*" type | IDENT
//	           | "fn" "(" types ")" ["->" type] | "(" types ")"
//
// Expressions use precedence climbing; see parser_expr.go.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/types"
)

// Parser parses tern source into an untyped tree. Type expressions are
// interned in the arena passed to New.
type Parser struct {
	tokens *Lookahead
	arena  *types.Arena
	lexErr error // first lexer failure; takes precedence over parse errors
}

// New creates a parser reading src.
func New(src *token.Source, arena *types.Arena, opts ...LexerOption) *Parser {
	return &Parser{
		tokens: NewLookahead(NewLexer(src, opts...)),
		arena:  arena,
	}
}

// Parse parses a whole program.
func Parse(src *token.Source, arena *types.Arena, opts ...LexerOption) ([]ast.Item, error) {
	return New(src, arena, opts...).Parse()
}

// Parse parses top-level items until the end of source.
func (p *Parser) Parse() ([]ast.Item, error) {
	items, err := p.parseItems()
	return finish(p, items, err)
}

// ParseStatements parses a statement sequence that must span the whole input.
func (p *Parser) ParseStatements() ([]ast.Item, error) {
	items, err := p.parseStmts()
	if err == nil {
		err = p.expectEOF()
	}
	return finish(p, items, err)
}

// ParseExpr parses a single expression that must span the whole input.
func (p *Parser) ParseExpr() (ast.Expr, error) {
	expr, err := p.parseExpr(0)
	if err == nil {
		err = p.expectEOF()
	}
	return finish(p, expr, err)
}

// ParseType parses a single type expression that must span the whole input.
func (p *Parser) ParseType() (*types.Ty, error) {
	ty, err := p.parseType()
	if err == nil {
		err = p.expectEOF()
	}
	return finish(p, ty, err)
}

func finish[T any](p *Parser, v T, err error) (T, error) {
	var zero T
	if p.lexErr != nil {
		return zero, p.lexErr
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

// ---------- Token Helpers ----------

// peek returns the token n positions ahead. After a lexer failure it returns
// an EOF token so every production unwinds; Parse then reports the failure.
func (p *Parser) peek(n int) token.Token {
	tok, err := p.tokens.Peek(n)
	if err != nil {
		p.fail(err)
		return token.Token{Kind: token.EOF}
	}
	return tok
}

// advance consumes the next token.
func (p *Parser) advance() token.Token {
	tok, err := p.tokens.Advance()
	if err != nil {
		p.fail(err)
		return token.Token{Kind: token.EOF}
	}
	return tok
}

func (p *Parser) fail(err error) {
	if p.lexErr == nil {
		p.lexErr = err
	}
}

// checkPunct returns true if the next token is the punctuation c.
func (p *Parser) checkPunct(c byte) bool {
	return p.peek(0).IsPunct(c)
}

// matchPunct consumes the next token if it is the punctuation c.
func (p *Parser) matchPunct(c byte) bool {
	if p.checkPunct(c) {
		p.advance()
		return true
	}
	return false
}

// matchPair consumes a two-character operator spelled first, second. The
// first character must be Joint.
func (p *Parser) matchPair(first, second byte) bool {
	if p.peek(0).IsJoint(first) && p.peek(1).IsPunct(second) {
		p.advance()
		p.advance()
		return true
	}
	return false
}

// expectPunct consumes the punctuation c or fails.
func (p *Parser) expectPunct(c byte) error {
	if p.matchPunct(c) {
		return nil
	}
	return unexpected(p.peek(0), fmt.Sprintf("%q", string(c)))
}

// checkKeyword returns true if the next token is the keyword kw.
func (p *Parser) checkKeyword(kw token.Keyword) bool {
	return p.peek(0).IsKeyword(kw)
}

// matchKeyword consumes the next token if it is the keyword kw.
func (p *Parser) matchKeyword(kw token.Keyword) bool {
	if p.checkKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

// expectKeyword consumes the keyword kw or fails.
func (p *Parser) expectKeyword(kw token.Keyword) (token.Token, error) {
	tok := p.peek(0)
	if tok.IsKeyword(kw) {
		return p.advance(), nil
	}
	return tok, unexpected(tok, fmt.Sprintf("keyword %q", kw.String()))
}

// expectIdent consumes an identifier or fails.
func (p *Parser) expectIdent() (token.Token, error) {
	tok := p.peek(0)
	if tok.Kind == token.IDENT {
		return p.advance(), nil
	}
	return tok, unexpected(tok, "identifier")
}

func (p *Parser) expectEOF() error {
	if tok := p.peek(0); !tok.IsEOF() {
		return unexpected(tok, "end of source")
	}
	return nil
}
