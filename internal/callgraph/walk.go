package callgraph

import "github.com/leapstack-labs/tern/pkg/typed"

// calls returns the callee of every call in items, in source order. Nested
// functions are not entered; they are nodes of their own.
func calls(items []typed.Item) []string {
	var out []string
	typed.Walk(items, func(node any) bool {
		switch n := node.(type) {
		case *typed.Function:
			return false
		case *typed.Expr:
			if call, ok := n.Node.(*typed.Call); ok {
				out = append(out, call.Callee)
			}
		}
		return true
	})
	return out
}
