package parser

import (
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/token"
)

// Expression parsing uses precedence climbing:
//
//	precedence  operators               associativity
//	0           < > <= >= == != ..      right
//	1           + -                     + right, - left
//	2           * /                     right
//	3           .                       left
//	5           f(args)  a[i]           left (postfix)
//
// The loop stops on an operator of lower precedence, or of equal precedence
// when that operator is left-associative. Right operands are parsed at the
// operator's own precedence, so `a - b - c` is `(a - b) - c` while
// `a - b + c` is `a - (b + c)` and `a / b / c` is `a / (b / c)`.
//
// Prefix operands are parsed at precPrefix: tighter than every infix
// operator, looser than postfix ones, so -f(x) negates the call result.
const (
	precCompare = 0
	precSum     = 1
	precProduct = 2
	precPlace   = 3
	precPrefix  = 4
	precPostfix = 5
)

type opKind int

const (
	opInfix opKind = iota
	opPlace
	opRange
	opCall
	opIndex
)

// binaryOp describes an operator found at the head of the token stream.
type binaryOp struct {
	kind  opKind
	op    ast.Operator
	prec  int
	left  bool // left-associative
	width int  // tokens to consume
}

// peekOperator classifies the upcoming tokens as an infix or postfix
// operator. A bare `=` and the compound forms `+=`, `-=`, `*=`, `/=` are not
// operators here; they belong to the statement level.
func (p *Parser) peekOperator() (binaryOp, bool) {
	tok := p.peek(0)
	if tok.Kind != token.PUNCT {
		return binaryOp{}, false
	}
	joint := tok.Spacing == token.Joint
	pairs := func(c byte) bool { return joint && p.peek(1).IsPunct(c) }

	switch tok.Punct {
	case '+', '-', '*', '/':
		if pairs('=') {
			return binaryOp{}, false
		}
		switch tok.Punct {
		case '+':
			return binaryOp{kind: opInfix, op: ast.Add, prec: precSum, width: 1}, true
		case '-':
			return binaryOp{kind: opInfix, op: ast.Sub, prec: precSum, left: true, width: 1}, true
		case '*':
			return binaryOp{kind: opInfix, op: ast.Mul, prec: precProduct, width: 1}, true
		default:
			return binaryOp{kind: opInfix, op: ast.Div, prec: precProduct, width: 1}, true
		}
	case '.':
		if pairs('.') {
			return binaryOp{kind: opRange, prec: precCompare, width: 2}, true
		}
		return binaryOp{kind: opPlace, prec: precPlace, left: true, width: 1}, true
	case '<':
		if pairs('=') {
			return binaryOp{kind: opInfix, op: ast.LessEq, prec: precCompare, width: 2}, true
		}
		return binaryOp{kind: opInfix, op: ast.Less, prec: precCompare, width: 1}, true
	case '>':
		if pairs('=') {
			return binaryOp{kind: opInfix, op: ast.GreaterEq, prec: precCompare, width: 2}, true
		}
		return binaryOp{kind: opInfix, op: ast.Greater, prec: precCompare, width: 1}, true
	case '=':
		if pairs('=') {
			return binaryOp{kind: opInfix, op: ast.Eq, prec: precCompare, width: 2}, true
		}
	case '!':
		if pairs('=') {
			return binaryOp{kind: opInfix, op: ast.NotEq, prec: precCompare, width: 2}, true
		}
	case '(':
		return binaryOp{kind: opCall, prec: precPostfix, left: true, width: 1}, true
	case '[':
		return binaryOp{kind: opIndex, prec: precPostfix, left: true, width: 1}, true
	}
	return binaryOp{}, false
}

// parseExpr parses an expression whose operators bind at least as tightly
// as minPrec. A missing expression is an error.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	start := p.peek(0)
	expr, err := p.parseExprOpt(minPrec)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		if start.IsEOF() {
			return nil, unexpected(start, "expression")
		}
		return nil, custom(start.Pos, ErrMissingExpression)
	}
	return expr, nil
}

// parseExprOpt returns nil without error when no expression starts here.
func (p *Parser) parseExprOpt(minPrec int) (ast.Expr, error) {
	lhs, err := p.parsePrimary()
	if err != nil || lhs == nil {
		return lhs, err
	}

	for {
		op, ok := p.peekOperator()
		if !ok || op.prec < minPrec || op.prec == minPrec && op.left {
			return lhs, nil
		}
		if lhs, err = p.parseOperator(lhs, op); err != nil {
			return nil, err
		}
	}
}

// parseOperator consumes op and its right-hand side.
func (p *Parser) parseOperator(lhs ast.Expr, op binaryOp) (ast.Expr, error) {
	at := p.peek(0).Pos
	for i := 0; i < op.width; i++ {
		p.advance()
	}

	switch op.kind {
	case opCall:
		args, err := p.parseExprList(')')
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: lhs, Args: args}, nil
	case opIndex:
		index, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(']'); err != nil {
			return nil, err
		}
		return &ast.Index{Base: lhs, Index: index}, nil
	}

	rhs, err := p.parseExpr(op.prec)
	if err != nil {
		return nil, err
	}

	switch op.kind {
	case opPlace:
		return &ast.Place{Base: lhs, Field: rhs}, nil
	case opRange:
		return &ast.RangeExpr{At: at, Lo: lhs, Hi: rhs}, nil
	default:
		return &ast.Infix{Op: op.op, Left: lhs, Right: rhs}, nil
	}
}

// parseExprList parses a comma separated list closed by close. A trailing
// comma is allowed. The closing token is consumed.
func (p *Parser) parseExprList(close byte) ([]ast.Expr, error) {
	var exprs []ast.Expr
	for !p.matchPunct(close) {
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if !p.matchPunct(',') {
			if err := p.expectPunct(close); err != nil {
				return nil, err
			}
			break
		}
	}
	return exprs, nil
}
