package ast

import "github.com/leapstack-labs/tern/pkg/token"

// ---------- Expression Types ----------

// Ident is a reference to a named binding.
type Ident struct {
	At   token.Position
	Name string
}

func (*Ident) exprNode() {}

// Pos implements Node.
func (e *Ident) Pos() token.Position { return e.At }

// IntLit is an integer literal.
type IntLit struct {
	At    token.Position
	Value int32
}

func (*IntLit) exprNode() {}

// Pos implements Node.
func (e *IntLit) Pos() token.Position { return e.At }

// FloatLit is a floating point literal.
type FloatLit struct {
	At    token.Position
	Value float32
}

func (*FloatLit) exprNode() {}

// Pos implements Node.
func (e *FloatLit) Pos() token.Position { return e.At }

// BoolLit is true or false.
type BoolLit struct {
	At    token.Position
	Value bool
}

func (*BoolLit) exprNode() {}

// Pos implements Node.
func (e *BoolLit) Pos() token.Position { return e.At }

// StringLit is a string literal; Value holds the raw characters between the
// quotes.
type StringLit struct {
	At    token.Position
	Value string
}

func (*StringLit) exprNode() {}

// Pos implements Node.
func (e *StringLit) Pos() token.Position { return e.At }

// Infix is a binary operation.
type Infix struct {
	Op    Operator
	Left  Expr
	Right Expr
}

func (*Infix) exprNode() {}

// Pos implements Node.
func (e *Infix) Pos() token.Position { return e.Left.Pos() }

// Prefix is a unary operation: -x, &x or *x.
type Prefix struct {
	At      token.Position
	Op      Operator
	Operand Expr
}

func (*Prefix) exprNode() {}

// Pos implements Node.
func (e *Prefix) Pos() token.Position { return e.At }

// Place is a member access a.b.
type Place struct {
	Base  Expr
	Field Expr
}

func (*Place) exprNode() {}

// Pos implements Node.
func (e *Place) Pos() token.Position { return e.Base.Pos() }

// Index is an element access a[i].
type Index struct {
	Base  Expr
	Index Expr
}

func (*Index) exprNode() {}

// Pos implements Node.
func (e *Index) Pos() token.Position { return e.Base.Pos() }

// ArrayLit is a bracketed list of elements.
type ArrayLit struct {
	At    token.Position
	Elems []Expr
}

func (*ArrayLit) exprNode() {}

// Pos implements Node.
func (e *ArrayLit) Pos() token.Position { return e.At }

// Call is a function application.
type Call struct {
	Callee Expr
	Args   []Expr
}

func (*Call) exprNode() {}

// Pos implements Node.
func (e *Call) Pos() token.Position { return e.Callee.Pos() }

// TupleLit is a parenthesized list of zero or at least two elements.
type TupleLit struct {
	At    token.Position
	Elems []Expr
}

func (*TupleLit) exprNode() {}

// Pos implements Node.
func (e *TupleLit) Pos() token.Position { return e.At }

// RangeExpr is lo..hi, or the open-ended form `range lo` where Hi is nil.
type RangeExpr struct {
	At token.Position
	Lo Expr
	Hi Expr
}

func (*RangeExpr) exprNode() {}

// Pos implements Node.
func (e *RangeExpr) Pos() token.Position { return e.At }

// IsOpen reports whether the range has no upper bound.
func (e *RangeExpr) IsOpen() bool { return e.Hi == nil }

// Var refers to a lowered variable slot. The parser never produces it; it
// exists for tools that rewrite trees before checking.
type Var struct {
	At   token.Position
	Slot int
}

func (*Var) exprNode() {}

// Pos implements Node.
func (e *Var) Pos() token.Position { return e.At }
