package format

import (
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/types"
)

func (p *Printer) formatItems(items []ast.Item) {
	for i, item := range items {
		// Top level declarations are separated by a blank line.
		if i > 0 && p.depth == 0 {
			p.writeln()
		}
		p.formatItem(item)
		p.writeln()
	}
}

func (p *Printer) formatBody(body []ast.Item) {
	p.block(len(body), func(i int) { p.formatItem(body[i]) })
}

func (p *Printer) formatItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.Function:
		p.formatFunction(it)

	case *ast.Struct:
		p.write("struct " + it.Name + " ")
		p.block(len(it.Fields), func(i int) {
			p.formatField(it.Fields[i])
			p.write(",")
		})

	case *ast.Let:
		p.write("let " + it.Name)
		if it.Type != nil {
			p.write(": " + it.Type.String())
		}
		if it.Value != nil {
			p.write(" = ")
			p.formatExpr(it.Value)
		}
		p.write(";")

	case *ast.Assignment:
		p.formatExpr(it.Target)
		p.space()
		if it.Op != nil {
			p.write(it.Op.String())
		}
		p.write("= ")
		p.formatExpr(it.Value)
		p.write(";")

	case *ast.ExprStmt:
		p.formatExpr(it.X)
		p.write(";")

	case *ast.If:
		p.formatIf(it)

	case *ast.ForIn:
		p.write("for " + it.Name + " in ")
		p.formatExpr(it.Iter)
		p.space()
		p.formatBody(it.Body)

	case *ast.Loop:
		p.write("loop ")
		p.formatBody(it.Body)

	case *ast.Break:
		p.write("break;")

	case *ast.Yield:
		p.write("yield ")
		p.formatExpr(it.Value)
		p.write(";")

	case *ast.Return:
		p.write("return")
		if it.Value != nil {
			p.space()
			p.formatExpr(it.Value)
		}
		p.write(";")

	case *ast.Block:
		p.formatBody(it.Body)

	case *ast.Assert:
		p.write("assert ")
		p.formatExpr(it.Cond)
		p.write(";")
	}
}

func (p *Printer) formatFunction(fn *ast.Function) {
	if fn.Extern {
		p.write("extern ")
	}
	p.write("fn " + fn.Name + "(")
	p.formatList(len(fn.Params), func(i int) { p.formatField(fn.Params[i]) }, ", ")
	p.write(")")
	p.formatResult(fn.Result)
	if fn.Extern {
		p.write(";")
		return
	}
	p.space()
	p.formatBody(fn.Body)
}

func (p *Printer) formatResult(ty *types.Ty) {
	if ty != nil && ty.Kind != types.Unit {
		p.write(" -> " + ty.String())
	}
}

func (p *Printer) formatField(f ast.Field) {
	p.write(f.Name + ": " + f.Type.String())
}

func (p *Printer) formatIf(it *ast.If) {
	p.write("if ")
	p.formatExpr(it.Cond)
	p.space()
	p.formatBody(it.Then)
	if it.Else == nil {
		return
	}
	p.write(" else ")
	if len(it.Else) == 1 {
		if elseIf, ok := it.Else[0].(*ast.If); ok {
			p.formatIf(elseIf)
			return
		}
	}
	p.formatBody(it.Else)
}
