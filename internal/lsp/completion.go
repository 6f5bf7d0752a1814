package lsp

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/check"
	"github.com/leapstack-labs/tern/pkg/format"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/typed"
	"github.com/leapstack-labs/tern/pkg/types"
)

var builtinTypes = []string{"bool", "i32", "u32", "f32"}

// keywordDocs describes the keywords shown on hover.
var keywordDocs = map[string]string{
	"fn":     "Declares a function.",
	"extern": "Declares a function whose body is provided by the host.",
	"let":    "Introduces a binding.",
	"if":     "Conditional. The condition must be `bool`.",
	"else":   "Alternative branch of an `if`.",
	"for":    "Iterates over a range or an array: `for x in xs { ... }`.",
	"in":     "Separates the loop variable from the iterated value.",
	"loop":   "Repeats its body until `break` or `return`.",
	"break":  "Leaves the innermost loop.",
	"return": "Returns from the enclosing function.",
	"assert": "Checks a condition when the program runs.",
	"true":   "The `bool` constant true.",
	"false":  "The `bool` constant false.",
	"range":  "The type of `lo..hi` expressions.",
	"struct": "Reserved. Struct declarations are not supported.",
	"while":  "Reserved.",
	"yield":  "Reserved.",
}

// signature renders the declaration line of fn.
func signature(fn *ast.Function) string {
	var b strings.Builder
	if fn.Extern {
		b.WriteString("extern ")
	}
	b.WriteString("fn " + fn.Name + "(")
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name + ": " + p.Type.String())
	}
	b.WriteString(")")
	if fn.Result != nil && fn.Result.Kind != types.Unit {
		b.WriteString(" -> " + fn.Result.String())
	}
	return b.String()
}

func functions(doc *Document) []*ast.Function {
	if doc.Result == nil {
		return nil
	}
	var out []*ast.Function
	for _, item := range doc.Result.Items {
		if fn, ok := item.(*ast.Function); ok {
			out = append(out, fn)
		}
	}
	return out
}

func findFunction(doc *Document, name string) *ast.Function {
	for _, fn := range functions(doc) {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// completions offers keywords, types, the debug builtin and the functions
// and top-level bindings of the document.
func (s *Server) completions(params CompletionParams) []CompletionItem {
	items := []CompletionItem{}
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return items
	}
	prefix := doc.Prefix(params.Position)
	add := func(item CompletionItem, rank int) {
		if strings.HasPrefix(item.Label, prefix) {
			item.SortText = fmt.Sprintf("%d_%s", rank, item.Label)
			items = append(items, item)
		}
	}

	for _, fn := range functions(doc) {
		add(CompletionItem{
			Label:            fn.Name,
			Kind:             CompletionItemKindFunction,
			Detail:           signature(fn),
			InsertText:       fn.Name + "($1)",
			InsertTextFormat: InsertTextFormatSnippet,
		}, 0)
	}
	if doc.Result != nil {
		for _, item := range doc.Result.Typed {
			if let, ok := item.(*typed.Let); ok {
				add(CompletionItem{Label: let.Name, Kind: CompletionItemKindVariable, Detail: let.Ty.String()}, 1)
			}
		}
	}
	add(CompletionItem{
		Label:  check.DebugBuiltin,
		Kind:   CompletionItemKindFunction,
		Detail: "fn debug(value)",
	}, 2)
	for _, name := range builtinTypes {
		add(CompletionItem{Label: name, Kind: CompletionItemKindStruct, Detail: "built-in type"}, 3)
	}
	keywords := token.Keywords()
	slices.Sort(keywords)
	for _, kw := range keywords {
		add(CompletionItem{Label: kw, Kind: CompletionItemKindKeyword, Documentation: keywordDocs[kw]}, 4)
	}
	return items
}

// hover describes the word under the cursor: a function signature, a
// keyword, a built-in type or the type of the expression starting there.
func (s *Server) hover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	word, rng := doc.WordAt(params.Position)
	if word == "" {
		return nil
	}
	markdown := func(text string) *Hover {
		return &Hover{Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: text}, Range: &rng}
	}

	if fn := findFunction(doc, word); fn != nil {
		return markdown("```tern\n" + signature(fn) + "\n```")
	}
	if text, ok := keywordDocs[word]; ok {
		return markdown("**" + word + "**\n\n" + text)
	}
	if slices.Contains(builtinTypes, word) {
		return markdown("**" + word + "**\n\nbuilt-in type")
	}
	if word == check.DebugBuiltin {
		return markdown("```tern\nfn debug(value)\n```\n\nPrints its argument and returns it.")
	}
	if e := exprAt(doc, fromLSP(rng.Start)); e != nil && e.Ty != nil {
		return markdown("```tern\n" + word + ": " + e.Ty.String() + "\n```")
	}
	return nil
}

// exprAt returns the innermost typed expression starting at pos.
func exprAt(doc *Document, pos token.Position) *typed.Expr {
	if doc.Result == nil {
		return nil
	}
	var found *typed.Expr
	typed.Walk(doc.Result.Typed, func(node any) bool {
		if e, ok := node.(*typed.Expr); ok && e.Pos.Line == pos.Line && e.Pos.Column == pos.Column {
			found = e
		}
		return true
	})
	return found
}

// definition jumps to the declaration of the function under the cursor.
func (s *Server) definition(params DefinitionParams) *Location {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	word, _ := doc.WordAt(params.Position)
	fn := findFunction(doc, word)
	if fn == nil {
		return nil
	}
	start := toLSP(fn.At)
	return &Location{URI: doc.URI, Range: Range{Start: start, End: start}}
}

// format replaces the whole document with its canonical layout. A document
// that does not parse is left alone.
func (s *Server) format(params DocumentFormattingParams) []TextEdit {
	edits := []TextEdit{}
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return edits
	}
	out, err := format.Reformat(token.NewSource(URIToPath(doc.URI), doc.Content))
	if err != nil {
		s.logger.Debug("format failed", slog.String("uri", doc.URI), slog.Any("error", err))
		s.sendNotification("window/showMessage", &ShowMessageParams{
			Type:    MessageTypeWarning,
			Message: "cannot format a document with syntax errors",
		})
		return edits
	}
	if out == doc.Content {
		return edits
	}
	return append(edits, TextEdit{Range: doc.fullRange(), NewText: out})
}
