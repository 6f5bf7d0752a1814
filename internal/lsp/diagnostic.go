package lsp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/diag"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
)

const diagnosticSource = "tern"

// publishDiagnostics sends the findings of the last compilation of doc.
func (s *Server) publishDiagnostics(doc *Document) {
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     doc.Version,
		Diagnostics: documentDiagnostics(doc),
	})
}

// documentDiagnostics converts the compilation result of doc. A syntax error
// yields a single diagnostic; checker findings are reported as found.
func documentDiagnostics(doc *Document) []Diagnostic {
	out := []Diagnostic{}
	if doc.Result == nil {
		return out
	}

	var lexErr *parser.LexError
	var parseErr *parser.ParseError
	switch {
	case errors.As(doc.Result.Err, &lexErr):
		out = append(out, doc.errorAt(lexErr.Pos, "lex-error", lexErr.Error()))
	case errors.As(doc.Result.Err, &parseErr):
		out = append(out, doc.errorAt(parseErr.Pos, "parse-error", parseErr.Error()))
	}

	functions := functionNames(doc.Result)
	for _, d := range doc.Result.Diagnostics {
		start := toLSP(d.Pos)
		_, rng := doc.WordAt(start)
		rng.Start = start
		msg := d.Message
		if d.Code == diag.CodeUnresolvedCallee {
			if word, _ := doc.WordAt(start); word != "" {
				if similar := suggestSimilar(word, functions, 2); len(similar) > 0 {
					msg = fmt.Sprintf("%s. Did you mean: %s?", msg, strings.Join(similar, ", "))
				}
			}
		}
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: toLSPSeverity(d.Severity),
			Code:     string(d.Code),
			Source:   diagnosticSource,
			Message:  msg,
		})
	}
	return out
}

// errorAt builds an error diagnostic spanning the word at pos.
func (d *Document) errorAt(pos token.Position, code, msg string) Diagnostic {
	start := toLSP(pos)
	_, rng := d.WordAt(start)
	rng.Start = start
	return Diagnostic{
		Range:    rng,
		Severity: DiagnosticSeverityError,
		Code:     code,
		Source:   diagnosticSource,
		Message:  msg,
	}
}

// functionNames lists the top-level functions declared in r.
func functionNames(r *driver.Result) []string {
	var names []string
	for _, item := range r.Items {
		if fn, ok := item.(*ast.Function); ok {
			names = append(names, fn.Name)
		}
	}
	return names
}

func toLSPSeverity(sev diag.Severity) DiagnosticSeverity {
	switch sev {
	case diag.SeverityFatal, diag.SeverityError:
		return DiagnosticSeverityError
	case diag.SeverityWarning:
		return DiagnosticSeverityWarning
	case diag.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}

// suggestSimilar returns the candidates within maxDistance edits of input.
func suggestSimilar(input string, candidates []string, maxDistance int) []string {
	var suggestions []string
	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist <= maxDistance && dist > 0 {
			suggestions = append(suggestions, candidate)
		}
	}
	return suggestions
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}
	return matrix[len(s1)][len(s2)]
}
