package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/pkg/token"
)

type tokenEntry struct {
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Kind    string `json:"kind" yaml:"kind"`
	Text    string `json:"text" yaml:"text"`
	Spacing string `json:"spacing,omitempty" yaml:"spacing,omitempty"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a source file",
		Long: `Lex a source file and print every token with its position.

Columns honour the configured tab width. Punctuation tokens show whether
they are joint (directly followed by more punctuation) or single.`,
		Example: `  tern tokens lib.tn
  tern tokens lib.tn --tab-width 8 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: runTokens,
	}
}

func runTokens(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is a command argument
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	toks, err := cc.Driver.Tokenize(path, string(content))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	entries := make([]tokenEntry, 0, len(toks))
	for _, tok := range toks {
		entries = append(entries, newTokenEntry(tok))
	}

	r := cc.Renderer
	if r.Structured() {
		return r.Data(entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d:%d", e.Line, e.Column), e.Kind, e.Text, e.Spacing,
		})
	}
	r.Header(1, path)
	r.Table([]string{"Pos", "Kind", "Text", "Spacing"}, rows)
	return nil
}

func newTokenEntry(tok token.Token) tokenEntry {
	e := tokenEntry{Line: tok.Pos.Line, Column: tok.Pos.Column, Kind: tok.Kind.String()}
	switch tok.Kind {
	case token.KEYWORD:
		e.Text = tok.Keyword.String()
	case token.IDENT:
		e.Text = tok.Text
	case token.STRING:
		e.Text = strconv.Quote(tok.Text)
	case token.INT:
		e.Text = strconv.FormatInt(int64(tok.Int), 10)
	case token.FLOAT:
		e.Text = strconv.FormatFloat(float64(tok.Float), 'g', -1, 32)
	case token.PUNCT:
		e.Text = string(tok.Punct)
		e.Spacing = tok.Spacing.String()
	}
	return e
}
