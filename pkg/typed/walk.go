package typed

// Walk traverses items depth-first in source order and calls fn for every
// Item and *Expr. If fn returns false, the children of that node are skipped.
func Walk(items []Item, fn func(node any) bool) {
	for _, item := range items {
		walk(item, fn)
	}
}

func walk(node any, fn func(node any) bool) {
	switch n := node.(type) {
	case nil:
		return
	case *Expr:
		if n == nil || !fn(n) {
			return
		}
		walkExpr(n, fn)
	case Item:
		if !fn(n) {
			return
		}
		walkItem(n, fn)
	}
}

func walkItem(item Item, fn func(node any) bool) {
	switch it := item.(type) {
	case *Let:
		walk(it.Value, fn)
	case *Assignment:
		walk(it.Target, fn)
		walk(it.Value, fn)
	case *ExprStmt:
		walk(it.X, fn)
	case *Function:
		Walk(it.Body, fn)
	case *If:
		walk(it.Cond, fn)
		Walk(it.Then, fn)
		Walk(it.Else, fn)
	case *ForIn:
		walk(it.Iter, fn)
		Walk(it.Body, fn)
	case *Loop:
		Walk(it.Body, fn)
	case *Return:
		walk(it.Value, fn)
	case *Block:
		Walk(it.Body, fn)
	case *Assert:
		walk(it.Cond, fn)
	}
}

func walkExpr(e *Expr, fn func(node any) bool) {
	switch n := e.Node.(type) {
	case *Infix:
		walk(n.Left, fn)
		walk(n.Right, fn)
	case *Prefix:
		walk(n.Operand, fn)
	case *Index:
		walk(n.Base, fn)
		walk(n.Index, fn)
	case *ArrayLit:
		for _, el := range n.Elems {
			walk(el, fn)
		}
	case *Call:
		for _, arg := range n.Args {
			walk(arg, fn)
		}
	case *TupleLit:
		for _, el := range n.Elems {
			walk(el, fn)
		}
	case *Range:
		walk(n.Lo, fn)
		walk(n.Hi, fn)
	}
}
