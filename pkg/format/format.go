package format

import (
	"fmt"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/types"
)

// Source prints a parsed program in canonical layout. Parentheses are kept
// only where the operator table needs them.
func Source(items []ast.Item) string {
	p := newPrinter()
	p.formatItems(items)
	return p.String()
}

// Expr prints a single expression.
func Expr(e ast.Expr) string {
	p := newPrinter()
	p.formatExpr(e)
	return p.output.String()
}

// Reformat parses src and prints it back in canonical layout.
func Reformat(src *token.Source, opts ...parser.LexerOption) (string, error) {
	items, err := parser.Parse(src, types.NewArena(), opts...)
	if err != nil {
		return "", fmt.Errorf("format %s: %w", src.Name, err)
	}
	return Source(items), nil
}
