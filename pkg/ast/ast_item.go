package ast

import (
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/types"
)

// ---------- Item Types ----------

// Field is a `name: Type` pair in a struct or parameter list.
type Field struct {
	At   token.Position
	Name string
	Type *types.Ty
}

// Let introduces a binding. Type and Value are optional.
type Let struct {
	At    token.Position
	Name  string
	Type  *types.Ty
	Value Expr
}

func (*Let) itemNode() {}

// Pos implements Node.
func (i *Let) Pos() token.Position { return i.At }

// Assignment is `lhs = expr;` or a compound form such as `lhs += expr;`.
// Op is nil for plain assignment.
type Assignment struct {
	Target Expr
	Op     *Operator
	Value  Expr
}

func (*Assignment) itemNode() {}

// Pos implements Node.
func (i *Assignment) Pos() token.Position { return i.Target.Pos() }

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	X Expr
}

func (*ExprStmt) itemNode() {}

// Pos implements Node.
func (i *ExprStmt) Pos() token.Position { return i.X.Pos() }

// Function is a function declaration. Extern functions have no body.
type Function struct {
	At     token.Position
	Name   string
	Extern bool
	Params []Field
	Result *types.Ty
	Body   []Item
}

func (*Function) itemNode() {}

// Pos implements Node.
func (i *Function) Pos() token.Position { return i.At }

// Struct is a record declaration.
type Struct struct {
	At     token.Position
	Name   string
	Fields []Field
}

func (*Struct) itemNode() {}

// Pos implements Node.
func (i *Struct) Pos() token.Position { return i.At }

// If is a conditional. Else is nil when there is no else arm; an else-if
// chain is an Else holding a single *If.
type If struct {
	At   token.Position
	Cond Expr
	Then []Item
	Else []Item
}

func (*If) itemNode() {}

// Pos implements Node.
func (i *If) Pos() token.Position { return i.At }

// ForIn iterates Iter, binding each step to Name.
type ForIn struct {
	At   token.Position
	Name string
	Iter Expr
	Body []Item
}

func (*ForIn) itemNode() {}

// Pos implements Node.
func (i *ForIn) Pos() token.Position { return i.At }

// Loop repeats Body until a break.
type Loop struct {
	At   token.Position
	Body []Item
}

func (*Loop) itemNode() {}

// Pos implements Node.
func (i *Loop) Pos() token.Position { return i.At }

// Break leaves the innermost loop.
type Break struct {
	At token.Position
}

func (*Break) itemNode() {}

// Pos implements Node.
func (i *Break) Pos() token.Position { return i.At }

// Yield produces a value from a generator body.
type Yield struct {
	At    token.Position
	Value Expr
}

func (*Yield) itemNode() {}

// Pos implements Node.
func (i *Yield) Pos() token.Position { return i.At }

// Return leaves the enclosing function with Value.
type Return struct {
	At    token.Position
	Value Expr
}

func (*Return) itemNode() {}

// Pos implements Node.
func (i *Return) Pos() token.Position { return i.At }

// Block is a braced statement sequence with its own scope.
type Block struct {
	At   token.Position
	Body []Item
}

func (*Block) itemNode() {}

// Pos implements Node.
func (i *Block) Pos() token.Position { return i.At }

// Assert is a boolean check evaluated by the test runner, usually of the
// form `assert f(args) == expected;`.
type Assert struct {
	At   token.Position
	Cond Expr
}

func (*Assert) itemNode() {}

// Pos implements Node.
func (i *Assert) Pos() token.Position { return i.At }
