package parser

import (
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/token"
)

// ---------- Items ----------

// parseItems parses top-level declarations until the end of source.
func (p *Parser) parseItems() ([]ast.Item, error) {
	var items []ast.Item
	for {
		tok := p.peek(0)
		var (
			item ast.Item
			err  error
		)
		switch {
		case tok.IsEOF():
			return items, nil
		case tok.IsKeyword(token.Extern), tok.IsKeyword(token.Fn):
			item, err = p.parseFn()
		case tok.IsKeyword(token.Struct):
			item, err = p.parseStruct()
		case tok.IsKeyword(token.Assert):
			item, err = p.parseAssert()
		default:
			return nil, unexpected(tok, "fn, extern, struct or assert")
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

// parseStmts parses statements until a token that cannot start one.
func (p *Parser) parseStmts() ([]ast.Item, error) {
	var items []ast.Item
	for {
		tok := p.peek(0)
		var (
			item ast.Item
			err  error
		)
		switch {
		case tok.IsKeyword(token.Let):
			item, err = p.parseLet()
		case tok.IsKeyword(token.Loop):
			item, err = p.parseLoop()
		case tok.IsKeyword(token.For):
			item, err = p.parseFor()
		case tok.IsKeyword(token.If):
			item, err = p.parseIf()
		case tok.IsKeyword(token.Yield):
			item, err = p.parseYield()
		case tok.IsKeyword(token.Return):
			item, err = p.parseReturn()
		case tok.IsKeyword(token.Break):
			item, err = p.parseBreak()
		case tok.IsKeyword(token.Assert):
			item, err = p.parseAssert()
		case tok.IsKeyword(token.Extern), tok.IsKeyword(token.Fn):
			item, err = p.parseFn()
		case tok.IsPunct('{'):
			item, err = p.parseBlock()
		case startsExpr(tok):
			item, err = p.parseAssignOrExpr()
		default:
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

// startsExpr reports whether tok can begin an expression statement.
func startsExpr(tok token.Token) bool {
	switch tok.Kind {
	case token.IDENT, token.INT, token.FLOAT, token.STRING:
		return true
	case token.KEYWORD:
		return tok.Keyword == token.True || tok.Keyword == token.False || tok.Keyword == token.Range
	case token.PUNCT:
		switch tok.Punct {
		case '(', '[', '-', '&', '*':
			return true
		}
	}
	return false
}

// parseBody parses `{ stmts }`.
func (p *Parser) parseBody() ([]ast.Item, error) {
	if err := p.expectPunct('{'); err != nil {
		return nil, err
	}
	body, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct('}'); err != nil {
		return nil, err
	}
	return body, nil
}

// parseFn parses:
//
//	["extern"] "fn" IDENT "(" fields ")" ["->" type] ( "{" stmts "}" | ";" )
func (p *Parser) parseFn() (ast.Item, error) {
	start := p.peek(0).Pos
	extern := p.matchKeyword(token.Extern)
	if _, err := p.expectKeyword(token.Fn); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct('('); err != nil {
		return nil, err
	}
	params, err := p.parseFields()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(')'); err != nil {
		return nil, err
	}

	fn := &ast.Function{At: start, Name: name.Text, Extern: extern, Params: params}
	if p.matchPair('-', '>') {
		if fn.Result, err = p.parseType(); err != nil {
			return nil, err
		}
	} else {
		fn.Result = p.arena.Unit()
	}

	if extern {
		return fn, p.expectPunct(';')
	}
	if fn.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseStruct parses "struct" IDENT "{" fields "}".
func (p *Parser) parseStruct() (ast.Item, error) {
	kw, err := p.expectKeyword(token.Struct)
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct('{'); err != nil {
		return nil, err
	}
	fields, err := p.parseFields()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct('}'); err != nil {
		return nil, err
	}
	return &ast.Struct{At: kw.Pos, Name: name.Text, Fields: fields}, nil
}

// parseFields parses a comma separated `name: Type` list. The list ends at
// the first token that is not an identifier or after an entry without a
// trailing comma.
func (p *Parser) parseFields() ([]ast.Field, error) {
	var fields []ast.Field
	for p.peek(0).Kind == token.IDENT {
		name := p.advance()
		if err := p.expectPunct(':'); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.Field{At: name.Pos, Name: name.Text, Type: ty})
		if !p.matchPunct(',') {
			break
		}
	}
	return fields, nil
}

// ---------- Statements ----------

// parseLet parses "let" IDENT [":" type] ["=" expr] ";".
func (p *Parser) parseLet() (ast.Item, error) {
	kw, err := p.expectKeyword(token.Let)
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	let := &ast.Let{At: kw.Pos, Name: name.Text}
	if p.matchPunct(':') {
		if let.Type, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if p.matchPunct('=') {
		if let.Value, err = p.parseExpr(0); err != nil {
			return nil, err
		}
	}
	return let, p.expectPunct(';')
}

func (p *Parser) parseLoop() (ast.Item, error) {
	kw, err := p.expectKeyword(token.Loop)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.Loop{At: kw.Pos, Body: body}, nil
}

// parseFor parses "for" IDENT "in" expr "{" stmts "}".
func (p *Parser) parseFor() (ast.Item, error) {
	kw, err := p.expectKeyword(token.For)
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.In); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.ForIn{At: kw.Pos, Name: name.Text, Iter: iter, Body: body}, nil
}

// parseIf parses "if" expr "{" stmts "}" ["else" (if | "{" stmts "}")].
func (p *Parser) parseIf() (ast.Item, error) {
	kw, err := p.expectKeyword(token.If)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{At: kw.Pos, Cond: cond, Then: then}
	if !p.matchKeyword(token.Else) {
		return stmt, nil
	}
	if p.checkKeyword(token.If) {
		elseIf, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		stmt.Else = []ast.Item{elseIf}
		return stmt, nil
	}
	if stmt.Else, err = p.parseBody(); err != nil {
		return nil, err
	}
	if stmt.Else == nil {
		stmt.Else = []ast.Item{}
	}
	return stmt, nil
}

func (p *Parser) parseYield() (ast.Item, error) {
	kw, err := p.expectKeyword(token.Yield)
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Yield{At: kw.Pos, Value: value}, p.expectPunct(';')
}

// parseReturn parses "return" [expr] ";". A bare return yields unit.
func (p *Parser) parseReturn() (ast.Item, error) {
	kw, err := p.expectKeyword(token.Return)
	if err != nil {
		return nil, err
	}
	ret := &ast.Return{At: kw.Pos}
	if !p.checkPunct(';') {
		if ret.Value, err = p.parseExpr(0); err != nil {
			return nil, err
		}
	}
	return ret, p.expectPunct(';')
}

func (p *Parser) parseBreak() (ast.Item, error) {
	kw, err := p.expectKeyword(token.Break)
	if err != nil {
		return nil, err
	}
	return &ast.Break{At: kw.Pos}, p.expectPunct(';')
}

func (p *Parser) parseAssert() (ast.Item, error) {
	kw, err := p.expectKeyword(token.Assert)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Assert{At: kw.Pos, Cond: cond}, p.expectPunct(';')
}

func (p *Parser) parseBlock() (ast.Item, error) {
	start := p.peek(0).Pos
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.Block{At: start, Body: body}, nil
}

// compoundOps maps the first character of `op=` to its operator.
var compoundOps = map[byte]ast.Operator{
	'+': ast.Add,
	'-': ast.Sub,
	'*': ast.Mul,
	'/': ast.Div,
}

// parseAssignOrExpr parses an expression statement, `lhs = expr;` or a
// compound assignment `lhs op= expr;`.
func (p *Parser) parseAssignOrExpr() (ast.Item, error) {
	lhs, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	var item ast.Item
	if op, ok := p.matchCompound(); ok {
		value, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		item = &ast.Assignment{Target: lhs, Op: &op, Value: value}
	} else if p.matchPunct('=') {
		value, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		item = &ast.Assignment{Target: lhs, Value: value}
	} else {
		item = &ast.ExprStmt{X: lhs}
	}
	return item, p.expectPunct(';')
}

func (p *Parser) matchCompound() (ast.Operator, bool) {
	tok := p.peek(0)
	if tok.Kind != token.PUNCT || tok.Spacing != token.Joint {
		return 0, false
	}
	op, ok := compoundOps[tok.Punct]
	if !ok || !p.peek(1).IsPunct('=') {
		return 0, false
	}
	p.advance()
	p.advance()
	return op, true
}
