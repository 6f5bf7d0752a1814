package format

import (
	"strconv"

	"github.com/leapstack-labs/tern/pkg/typed"
)

// Typed prints a checked program. Every expression is followed by "::" and
// its type; compound expressions are parenthesized so each annotation binds
// to exactly one node.
func Typed(items []typed.Item) string {
	p := newPrinter()
	p.formatTypedItems(items)
	return p.String()
}

// TypedExpr prints a single checked expression.
func TypedExpr(e *typed.Expr) string {
	p := newPrinter()
	p.formatTypedExpr(e)
	return p.output.String()
}

func (p *Printer) formatTypedItems(items []typed.Item) {
	for i, item := range items {
		if i > 0 && p.depth == 0 {
			p.writeln()
		}
		p.formatTypedItem(item)
		p.writeln()
	}
}

func (p *Printer) formatTypedBody(body []typed.Item) {
	p.block(len(body), func(i int) { p.formatTypedItem(body[i]) })
}

func (p *Printer) formatTypedItem(item typed.Item) {
	switch it := item.(type) {
	case *typed.Function:
		if it.Extern {
			p.write("extern ")
		}
		p.write("fn " + it.Name + "(")
		p.formatList(len(it.Params), func(i int) {
			p.write(it.Params[i].Name + ": " + it.Params[i].Ty.String())
		}, ", ")
		p.write(")")
		p.formatResult(it.Result)
		if it.Extern {
			p.write(";")
			return
		}
		p.space()
		p.formatTypedBody(it.Body)

	case *typed.Let:
		p.write("let " + it.Name + ": " + it.Ty.String() + " = ")
		p.formatTypedExpr(it.Value)
		p.write(";")

	case *typed.Assignment:
		p.formatTypedExpr(it.Target)
		p.space()
		if it.Op != nil {
			p.write(it.Op.String())
		}
		p.write("= ")
		p.formatTypedExpr(it.Value)
		p.write(";")

	case *typed.ExprStmt:
		p.formatTypedExpr(it.X)
		p.write(";")

	case *typed.If:
		p.write("if ")
		p.formatTypedExpr(it.Cond)
		p.space()
		p.formatTypedBody(it.Then)
		if it.Else != nil {
			p.write(" else ")
			p.formatTypedBody(it.Else)
		}

	case *typed.ForIn:
		p.write("for " + it.Name + ": " + it.Binding.String() + " in ")
		p.formatTypedExpr(it.Iter)
		p.space()
		p.formatTypedBody(it.Body)

	case *typed.Loop:
		p.write("loop ")
		p.formatTypedBody(it.Body)

	case *typed.Break:
		p.write("break;")

	case *typed.Return:
		p.write("return")
		if it.Value != nil {
			p.space()
			p.formatTypedExpr(it.Value)
		}
		p.write(";")

	case *typed.Block:
		p.formatTypedBody(it.Body)

	case *typed.Assert:
		p.write("assert ")
		p.formatTypedExpr(it.Cond)
		p.write(";")
	}
}

func (p *Printer) formatTypedExpr(e *typed.Expr) {
	compound := false
	switch e.Node.(type) {
	case *typed.Infix, *typed.Prefix, *typed.Range, *typed.Index, *typed.Call:
		compound = true
	}
	if compound {
		p.write("(")
	}

	switch n := e.Node.(type) {
	case *typed.Ident:
		p.write(n.Name)
	case *typed.IntLit:
		p.write(strconv.FormatInt(int64(n.Value), 10))
	case *typed.FloatLit:
		p.write(formatFloat(n.Value))
	case *typed.BoolLit:
		p.write(strconv.FormatBool(n.Value))
	case *typed.StringLit:
		p.write(`"` + n.Value + `"`)
	case *typed.Var:
		p.write("$" + strconv.Itoa(n.Slot))
	case *typed.Infix:
		p.formatTypedExpr(n.Left)
		p.write(" " + n.Op.String() + " ")
		p.formatTypedExpr(n.Right)
	case *typed.Prefix:
		p.write(n.Op.String())
		p.formatTypedExpr(n.Operand)
	case *typed.Range:
		p.formatTypedExpr(n.Lo)
		p.write("..")
		p.formatTypedExpr(n.Hi)
	case *typed.Index:
		p.formatTypedExpr(n.Base)
		p.write("[")
		p.formatTypedExpr(n.Index)
		p.write("]")
	case *typed.Call:
		p.write(n.Callee + "(")
		p.formatTypedExprs(n.Args)
		p.write(")")
	case *typed.ArrayLit:
		p.write("[")
		p.formatTypedExprs(n.Elems)
		p.write("]")
	case *typed.TupleLit:
		p.write("(")
		p.formatTypedExprs(n.Elems)
		p.write(")")
	case *typed.ErrorNode:
		p.write("<error>")
	}

	if compound {
		p.write(")")
	}
	p.write("::" + e.Ty.String())
}

func (p *Printer) formatTypedExprs(exprs []*typed.Expr) {
	p.formatList(len(exprs), func(i int) { p.formatTypedExpr(exprs[i]) }, ", ")
}
