// Package ast defines the untyped syntax tree produced by the parser.
//
// Trees are immutable once built. Type expressions inside the tree are
// already interned in the compilation's types.Arena.
package ast

import "github.com/leapstack-labs/tern/pkg/token"

// Node is the base interface for all tree nodes.
type Node interface {
	// Pos returns the position of the first token of the node.
	Pos() token.Position
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
}

// Item is a marker interface for declarations and statements.
type Item interface {
	Node
	itemNode() // Marker method to distinguish items
}

// Operator is an infix or prefix operator.
type Operator int

// Operators.
const (
	Add Operator = iota
	Sub
	Mul
	Div
	Less
	Greater
	LessEq
	GreaterEq
	Eq
	NotEq
	Negate
	Ref
	Deref
)

var operatorSymbols = [...]string{
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Div:       "/",
	Less:      "<",
	Greater:   ">",
	LessEq:    "<=",
	GreaterEq: ">=",
	Eq:        "==",
	NotEq:     "!=",
	Negate:    "-",
	Ref:       "&",
	Deref:     "*",
}

// String returns the operator as written in source.
func (op Operator) String() string {
	if int(op) >= 0 && int(op) < len(operatorSymbols) {
		return operatorSymbols[op]
	}
	return "?"
}

// IsComparison reports whether the operator yields a bool.
func (op Operator) IsComparison() bool {
	switch op {
	case Less, Greater, LessEq, GreaterEq, Eq, NotEq:
		return true
	}
	return false
}

// IsArithmetic reports whether the operator is + - * or /.
func (op Operator) IsArithmetic() bool {
	switch op {
	case Add, Sub, Mul, Div:
		return true
	}
	return false
}
