// Package typed defines the type-annotated tree produced by the checker.
//
// The shapes mirror pkg/ast, except that every expression carries its
// resolved type and struct declarations never appear.
package typed

import (
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/types"
)

// Expr is an expression paired with its type.
type Expr struct {
	Ty   *types.Ty
	Node Node
	Pos  token.Position
}

// Node is the payload of a typed expression.
type Node interface {
	typedNode() // Marker method
}

// Ident references a binding.
type Ident struct{ Name string }

// IntLit is an integer literal.
type IntLit struct{ Value int32 }

// FloatLit is a floating point literal.
type FloatLit struct{ Value float32 }

// BoolLit is a boolean literal.
type BoolLit struct{ Value bool }

// StringLit is a string literal.
type StringLit struct{ Value string }

// Infix is a binary operation.
type Infix struct {
	Op          ast.Operator
	Left, Right *Expr
}

// Prefix is a unary operation.
type Prefix struct {
	Op      ast.Operator
	Operand *Expr
}

// Index is an element access.
type Index struct {
	Base, Index *Expr
}

// ArrayLit is an array literal.
type ArrayLit struct{ Elems []*Expr }

// Call applies a named function.
type Call struct {
	Callee string
	Args   []*Expr
}

// TupleLit is a tuple literal.
type TupleLit struct{ Elems []*Expr }

// Range is a bounded range lo..hi.
type Range struct {
	Lo, Hi *Expr
}

// Var is a lowered variable slot.
type Var struct{ Slot int }

// ErrorNode replaces an expression that failed to check. The original tree
// is kept for diagnostics.
type ErrorNode struct{ Source ast.Expr }

func (*Ident) typedNode()     {}
func (*IntLit) typedNode()    {}
func (*FloatLit) typedNode()  {}
func (*BoolLit) typedNode()   {}
func (*StringLit) typedNode() {}
func (*Infix) typedNode()     {}
func (*Prefix) typedNode()    {}
func (*Index) typedNode()     {}
func (*ArrayLit) typedNode()  {}
func (*Call) typedNode()      {}
func (*TupleLit) typedNode()  {}
func (*Range) typedNode()     {}
func (*Var) typedNode()       {}
func (*ErrorNode) typedNode() {}

// IsError reports whether the expression failed to check.
func (e *Expr) IsError() bool {
	if _, ok := e.Node.(*ErrorNode); ok {
		return true
	}
	return e.Ty.IsError()
}
