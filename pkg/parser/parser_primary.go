package parser

import (
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/token"
)

// prefixOps maps prefix punctuation to its operator.
var prefixOps = map[byte]ast.Operator{
	'-': ast.Negate,
	'&': ast.Ref,
	'*': ast.Deref,
}

// parsePrimary parses the leading operand of an expression. It returns nil
// without consuming anything when the next token cannot start an expression.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek(0)

	switch tok.Kind {
	case token.IDENT:
		p.advance()
		return &ast.Ident{At: tok.Pos, Name: tok.Text}, nil
	case token.INT:
		p.advance()
		return &ast.IntLit{At: tok.Pos, Value: tok.Int}, nil
	case token.FLOAT:
		p.advance()
		return &ast.FloatLit{At: tok.Pos, Value: tok.Float}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLit{At: tok.Pos, Value: tok.Text}, nil

	case token.KEYWORD:
		switch tok.Keyword {
		case token.True, token.False:
			p.advance()
			return &ast.BoolLit{At: tok.Pos, Value: tok.Keyword == token.True}, nil
		case token.Range:
			p.advance()
			lo, err := p.parseExpr(precPrefix)
			if err != nil {
				return nil, err
			}
			return &ast.RangeExpr{At: tok.Pos, Lo: lo}, nil
		}

	case token.PUNCT:
		if op, ok := prefixOps[tok.Punct]; ok {
			p.advance()
			operand, err := p.parseExpr(precPrefix)
			if err != nil {
				return nil, err
			}
			return &ast.Prefix{At: tok.Pos, Op: op, Operand: operand}, nil
		}
		switch tok.Punct {
		case '(':
			return p.parseParen()
		case '[':
			p.advance()
			elems, err := p.parseExprList(']')
			if err != nil {
				return nil, err
			}
			return &ast.ArrayLit{At: tok.Pos, Elems: elems}, nil
		}
	}

	return nil, nil
}

// parseParen parses a parenthesized expression or a tuple literal. `()` is
// the empty tuple and a single element without a trailing comma is just the
// inner expression.
func (p *Parser) parseParen() (ast.Expr, error) {
	open := p.advance()
	elems, err := p.parseExprList(')')
	if err != nil {
		return nil, err
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	return &ast.TupleLit{At: open.Pos, Elems: elems}, nil
}
