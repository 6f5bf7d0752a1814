package typed

import (
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/types"
)

// Item is a checked declaration or statement.
type Item interface {
	Pos() token.Position
	itemNode() // Marker method
}

// Param is a checked function parameter.
type Param struct {
	Name string
	Ty   *types.Ty
}

// Let binds Name to the value of Value.
type Let struct {
	At    token.Position
	Name  string
	Ty    *types.Ty
	Value *Expr
}

// Assignment stores Value into Target, combining with Op when set.
type Assignment struct {
	At     token.Position
	Target *Expr
	Op     *ast.Operator
	Value  *Expr
}

// ExprStmt evaluates X.
type ExprStmt struct {
	At token.Position
	X  *Expr
}

// Function is a checked function. Ty is the function type.
type Function struct {
	At     token.Position
	Name   string
	Extern bool
	Params []Param
	Result *types.Ty
	Ty     *types.Ty
	Body   []Item
}

// If is a conditional; Else is nil without an else arm.
type If struct {
	At   token.Position
	Cond *Expr
	Then []Item
	Else []Item
}

// ForIn iterates Iter binding Name.
type ForIn struct {
	At      token.Position
	Name    string
	Binding *types.Ty
	Iter    *Expr
	Body    []Item
}

// Loop repeats Body until a break.
type Loop struct {
	At   token.Position
	Body []Item
}

// Break leaves the innermost loop.
type Break struct {
	At token.Position
}

// Return leaves the function. Value is nil for a bare return.
type Return struct {
	At    token.Position
	Value *Expr
}

// Block is a scoped statement sequence.
type Block struct {
	At   token.Position
	Body []Item
}

// Assert is a boolean check run by the test runner.
type Assert struct {
	At   token.Position
	Cond *Expr
}

func (i *Let) Pos() token.Position        { return i.At }
func (i *Assignment) Pos() token.Position { return i.At }
func (i *ExprStmt) Pos() token.Position   { return i.At }
func (i *Function) Pos() token.Position   { return i.At }
func (i *If) Pos() token.Position         { return i.At }
func (i *ForIn) Pos() token.Position      { return i.At }
func (i *Loop) Pos() token.Position       { return i.At }
func (i *Break) Pos() token.Position      { return i.At }
func (i *Return) Pos() token.Position     { return i.At }
func (i *Block) Pos() token.Position      { return i.At }
func (i *Assert) Pos() token.Position     { return i.At }

func (*Let) itemNode()        {}
func (*Assignment) itemNode() {}
func (*ExprStmt) itemNode()   {}
func (*Function) itemNode()   {}
func (*If) itemNode()         {}
func (*ForIn) itemNode()      {}
func (*Loop) itemNode()       {}
func (*Break) itemNode()      {}
func (*Return) itemNode()     {}
func (*Block) itemNode()      {}
func (*Assert) itemNode()     {}

// Functions returns the function items of a sequence, in order.
func Functions(items []Item) []*Function {
	var out []*Function
	for _, item := range items {
		if fn, ok := item.(*Function); ok {
			out = append(out, fn)
		}
	}
	return out
}
