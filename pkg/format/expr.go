package format

import (
	"strconv"

	"github.com/leapstack-labs/tern/pkg/ast"
)

// Binding strengths, matching the parser.
const (
	precCompare = 0
	precSum     = 1
	precProduct = 2
	precPlace   = 3
	precPrefix  = 4
	precPostfix = 5
	precAtom    = 6
)

// binding describes how tightly an expression holds together.
type binding struct {
	prec int
	left bool
}

func operatorBinding(op ast.Operator) binding {
	switch op {
	case ast.Add:
		return binding{prec: precSum}
	case ast.Sub:
		return binding{prec: precSum, left: true}
	case ast.Mul, ast.Div:
		return binding{prec: precProduct}
	}
	return binding{prec: precCompare}
}

func exprBinding(e ast.Expr) binding {
	switch e := e.(type) {
	case *ast.Infix:
		return operatorBinding(e.Op)
	case *ast.RangeExpr:
		if e.IsOpen() {
			return binding{prec: precPrefix}
		}
		return binding{prec: precCompare}
	case *ast.Place:
		return binding{prec: precPlace, left: true}
	case *ast.Prefix:
		return binding{prec: precPrefix}
	case *ast.Call, *ast.Index:
		return binding{prec: precPostfix, left: true}
	}
	return binding{prec: precAtom}
}

// leftBare reports whether child prints without parentheses as the left
// operand of parent: child's right operand must stop before parent.
func leftBare(child, parent binding) bool {
	return parent.prec < child.prec || parent.prec == child.prec && parent.left
}

// rightBare reports whether child prints without parentheses as the right
// operand of parent, which the parser reads at parent's precedence.
func rightBare(child, parent binding) bool {
	return child.prec > parent.prec || child.prec == parent.prec && !child.left
}

func (p *Printer) formatExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Ident:
		p.write(e.Name)
	case *ast.IntLit:
		p.write(strconv.FormatInt(int64(e.Value), 10))
	case *ast.FloatLit:
		p.write(formatFloat(e.Value))
	case *ast.BoolLit:
		p.write(strconv.FormatBool(e.Value))
	case *ast.StringLit:
		p.write(`"` + e.Value + `"`)
	case *ast.Var:
		p.write("$" + strconv.Itoa(e.Slot))

	case *ast.Infix:
		p.formatBinary(e, e.Left, " "+e.Op.String()+" ", e.Right)
	case *ast.RangeExpr:
		if e.IsOpen() {
			p.write("range ")
			p.formatOperand(e.Lo)
			return
		}
		p.formatBinary(e, e.Lo, "..", e.Hi)
	case *ast.Place:
		p.formatBinary(e, e.Base, ".", e.Field)

	case *ast.Prefix:
		p.write(e.Op.String())
		p.formatOperand(e.Operand)

	case *ast.Call:
		p.formatBase(e.Callee)
		p.write("(")
		p.formatExprs(e.Args)
		p.write(")")
	case *ast.Index:
		p.formatBase(e.Base)
		p.write("[")
		p.formatExpr(e.Index)
		p.write("]")

	case *ast.ArrayLit:
		p.write("[")
		p.formatExprs(e.Elems)
		p.write("]")
	case *ast.TupleLit:
		p.write("(")
		p.formatExprs(e.Elems)
		p.write(")")
	}
}

func (p *Printer) formatBinary(parent, left ast.Expr, op string, right ast.Expr) {
	b := exprBinding(parent)
	p.parenIf(!leftBare(exprBinding(left), b), left)
	p.write(op)
	p.parenIf(!rightBare(exprBinding(right), b), right)
}

// formatOperand prints the operand of a prefix operator.
func (p *Printer) formatOperand(e ast.Expr) {
	p.parenIf(!rightBare(exprBinding(e), binding{prec: precPrefix}), e)
}

// formatBase prints the expression a call or index applies to.
func (p *Printer) formatBase(e ast.Expr) {
	p.parenIf(!leftBare(exprBinding(e), binding{prec: precPostfix, left: true}), e)
}

func (p *Printer) parenIf(cond bool, e ast.Expr) {
	if cond {
		p.write("(")
		p.formatExpr(e)
		p.write(")")
		return
	}
	p.formatExpr(e)
}

func (p *Printer) formatExprs(exprs []ast.Expr) {
	p.formatList(len(exprs), func(i int) { p.formatExpr(exprs[i]) }, ", ")
}

// formatFloat prints f so that it lexes back as a float literal.
func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
