package check

import (
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/diag"
	"github.com/leapstack-labs/tern/pkg/typed"
	"github.com/leapstack-labs/tern/pkg/types"
)

// DebugBuiltin is the name of the built-in diagnostic printer. It accepts
// any single argument and returns unit.
const DebugBuiltin = "debug"

// StringType is the name of the opaque type given to string literals.
const StringType = "str"

// expr deduces the type of e. It never returns nil: failures produce an
// Error-typed expression so callers can keep going.
func (c *Checker) expr(e ast.Expr, env *Environment) *typed.Expr {
	switch x := e.(type) {
	case *ast.Ident:
		ty, ok := env.Lookup(x.Name)
		if !ok {
			c.report(diag.CodeUnresolvedIdentifier, x, "unresolved identifier %s", x.Name)
			return c.fail(x, c.arena.Error())
		}
		return c.typed(x, ty, &typed.Ident{Name: x.Name})

	case *ast.IntLit:
		return c.typed(x, c.arena.I32(), &typed.IntLit{Value: x.Value})

	case *ast.FloatLit:
		return c.typed(x, c.arena.F32(), &typed.FloatLit{Value: x.Value})

	case *ast.BoolLit:
		return c.typed(x, c.arena.Bool(), &typed.BoolLit{Value: x.Value})

	case *ast.StringLit:
		return c.typed(x, c.arena.Other(StringType), &typed.StringLit{Value: x.Value})

	case *ast.Infix:
		return c.infix(x, env)

	case *ast.Prefix:
		return c.prefix(x, env)

	case *ast.Index:
		return c.index(x, env)

	case *ast.ArrayLit:
		return c.array(x, env)

	case *ast.Call:
		return c.call(x, env)

	case *ast.TupleLit:
		elems := make([]*typed.Expr, len(x.Elems))
		tys := make([]*types.Ty, len(x.Elems))
		failed := false
		for i, el := range x.Elems {
			elems[i] = c.expr(el, env)
			tys[i] = elems[i].Ty
			failed = failed || elems[i].IsError()
		}
		if failed {
			return c.fail(x, c.arena.Error())
		}
		return c.typed(x, c.arena.Tuple(tys...), &typed.TupleLit{Elems: elems})

	case *ast.RangeExpr:
		return c.rangeExpr(x, env)

	case *ast.Place:
		c.report(diag.CodeUnsupportedConstruct, x, "field access is not supported")
		return c.fail(x, c.arena.Error())

	case *ast.Var:
		c.report(diag.CodeUnsupportedConstruct, x, "variable slot %d cannot be checked", x.Slot)
		return c.fail(x, c.arena.Error())
	}

	c.report(diag.CodeUnsupportedConstruct, e, "unsupported expression %T", e)
	return c.fail(e, c.arena.Error())
}

func (c *Checker) typed(e ast.Expr, ty *types.Ty, node typed.Node) *typed.Expr {
	return &typed.Expr{Ty: ty, Node: node, Pos: e.Pos()}
}

// fail wraps e in an ErrorNode of type ty.
func (c *Checker) fail(e ast.Expr, ty *types.Ty) *typed.Expr {
	return &typed.Expr{Ty: ty, Node: &typed.ErrorNode{Source: e}, Pos: e.Pos()}
}

func (c *Checker) infix(x *ast.Infix, env *Environment) *typed.Expr {
	left := c.expr(x.Left, env)
	right := c.expr(x.Right, env)
	node := &typed.Infix{Op: x.Op, Left: left, Right: right}

	if left.IsError() || right.IsError() {
		return c.typed(x, c.arena.Error(), node)
	}
	if !types.Compatible(left.Ty, right.Ty) {
		c.report(diag.CodeMismatchedTypes, x, "mismatched operands for %s: %s and %s", x.Op, left.Ty, right.Ty)
		return c.typed(x, c.arena.Error(), node)
	}

	if x.Op.IsComparison() {
		return c.typed(x, c.arena.Bool(), node)
	}
	return c.typed(x, left.Ty, node)
}

func (c *Checker) prefix(x *ast.Prefix, env *Environment) *typed.Expr {
	operand := c.expr(x.Operand, env)
	node := &typed.Prefix{Op: x.Op, Operand: operand}
	if operand.IsError() {
		return c.typed(x, c.arena.Error(), node)
	}

	ty := operand.Ty
	switch x.Op {
	case ast.Ref:
		return c.typed(x, c.arena.Pointer(ty), node)
	case ast.Negate:
		if ty.Kind == types.I32 || ty.Kind == types.F32 || ty.Kind == types.Any {
			return c.typed(x, ty, node)
		}
	case ast.Deref:
		switch ty.Kind {
		case types.Pointer:
			return c.typed(x, ty.Elem, node)
		case types.Any:
			return c.typed(x, ty, node)
		}
	}
	c.report(diag.CodeInvalidOperand, x, "operator %s is not defined on %s", x.Op, ty)
	return c.typed(x, c.arena.Error(), node)
}

func (c *Checker) index(x *ast.Index, env *Environment) *typed.Expr {
	base := c.expr(x.Base, env)
	idx := c.expr(x.Index, env)
	node := &typed.Index{Base: base, Index: idx}
	if base.IsError() || idx.IsError() {
		return c.typed(x, c.arena.Error(), node)
	}

	if !types.Compatible(idx.Ty, c.arena.I32()) {
		c.report(diag.CodeInvalidIndex, x.Index, "index must be i32, found %s", idx.Ty)
		return c.typed(x, c.arena.Error(), node)
	}
	switch base.Ty.Kind {
	case types.Array, types.Slice:
		return c.typed(x, base.Ty.Elem, node)
	case types.Any:
		return c.typed(x, base.Ty, node)
	}
	c.report(diag.CodeInvalidIndex, x, "cannot index into %s", base.Ty)
	return c.typed(x, c.arena.Error(), node)
}

func (c *Checker) array(x *ast.ArrayLit, env *Environment) *typed.Expr {
	if len(x.Elems) == 0 {
		c.report(diag.CodeEmptyArray, x, "cannot infer the element type of an empty array")
		return c.fail(x, c.arena.Unknown())
	}

	elems := make([]*typed.Expr, len(x.Elems))
	for i, el := range x.Elems {
		elems[i] = c.expr(el, env)
	}
	item := elems[0].Ty
	for _, el := range elems {
		if el.IsError() {
			return c.fail(x, c.arena.Error())
		}
	}
	for i, el := range elems[1:] {
		if !types.Compatible(el.Ty, item) {
			c.report(diag.CodeMismatchedTypes, x.Elems[i+1],
				"array element has type %s, expected %s", el.Ty, item)
			return c.fail(x, c.arena.Error())
		}
	}
	return c.typed(x, c.arena.Array(uint32(len(elems)), item), &typed.ArrayLit{Elems: elems})
}

func (c *Checker) call(x *ast.Call, env *Environment) *typed.Expr {
	callee, ok := x.Callee.(*ast.Ident)
	if !ok {
		c.report(diag.CodeUnsupportedConstruct, x, "only named functions can be called")
		return c.fail(x, c.arena.Error())
	}

	var fnTy *types.Ty
	if callee.Name == DebugBuiltin {
		fnTy = c.arena.Function([]*types.Ty{c.arena.Any()}, c.arena.Unit())
	} else {
		ty, found := env.Lookup(callee.Name)
		if !found {
			c.report(diag.CodeUnresolvedCallee, callee, "call to unresolved function %s", callee.Name)
			return c.fail(x, c.arena.Error())
		}
		fnTy = ty
	}

	args := make([]*typed.Expr, len(x.Args))
	failed := false
	for i, arg := range x.Args {
		args[i] = c.expr(arg, env)
		failed = failed || args[i].IsError()
	}

	switch {
	case fnTy.Kind == types.Any:
		return c.typed(x, fnTy, &typed.Call{Callee: callee.Name, Args: args})
	case fnTy.IsError():
		return c.fail(x, c.arena.Error())
	case fnTy.Kind != types.Function:
		c.report(diag.CodeNotCallable, callee, "%s has type %s and cannot be called", callee.Name, fnTy)
		return c.fail(x, c.arena.Error())
	}

	params := fnTy.Params()
	if len(args) != len(params) {
		c.report(diag.CodeArityMismatch, x, "%s takes %d arguments, %d given", callee.Name, len(params), len(args))
		return c.fail(x, c.arena.Error())
	}
	if failed {
		return c.fail(x, c.arena.Error())
	}
	for i, arg := range args {
		if !types.Compatible(arg.Ty, params[i]) {
			c.report(diag.CodeMismatchedTypes, x.Args[i],
				"argument %d of %s has type %s, expected %s", i+1, callee.Name, arg.Ty, params[i])
			return c.fail(x, c.arena.Error())
		}
	}
	return c.typed(x, fnTy.Ret, &typed.Call{Callee: callee.Name, Args: args})
}

func (c *Checker) rangeExpr(x *ast.RangeExpr, env *Environment) *typed.Expr {
	if x.IsOpen() {
		c.report(diag.CodeUnsupportedConstruct, x, "open-ended ranges are not supported")
		return c.fail(x, c.arena.Error())
	}
	lo := c.expr(x.Lo, env)
	hi := c.expr(x.Hi, env)
	node := &typed.Range{Lo: lo, Hi: hi}
	if lo.IsError() || hi.IsError() {
		return c.typed(x, c.arena.Error(), node)
	}
	if !types.Compatible(lo.Ty, hi.Ty) {
		c.report(diag.CodeMismatchedTypes, x, "range bounds differ: %s and %s", lo.Ty, hi.Ty)
		return c.typed(x, c.arena.Error(), node)
	}
	return c.typed(x, c.arena.Range(), node)
}
