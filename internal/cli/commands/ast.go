package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/cli/output"
	"github.com/leapstack-labs/tern/pkg/format"
)

// ASTOptions holds options for the ast command.
type ASTOptions struct {
	Typed bool
}

type treeDump struct {
	File  string `json:"file" yaml:"file"`
	Typed bool   `json:"typed" yaml:"typed"`
	Tree  string `json:"tree" yaml:"tree"`
}

// NewASTCommand creates the ast command.
func NewASTCommand() *cobra.Command {
	opts := &ASTOptions{}
	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the parsed or typed tree of a source file",
		Long: `Parse a source file and print its syntax tree in canonical form, with
parentheses only where operator precedence needs them.

With --typed the file is also type checked and every expression is printed
with its deduced type. Diagnostics are reported after the tree.`,
		Example: `  tern ast lib.tn
  tern ast lib.tn --typed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAST(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Typed, "typed", false, "Type check and print deduced types")

	return cmd
}

func runAST(cmd *cobra.Command, path string, opts *ASTOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	res := cc.Driver.CompileFile(cmd.Context(), path)
	if res.Items == nil && res.Err != nil {
		return res.Err
	}

	dump := treeDump{File: path, Typed: opts.Typed, Tree: format.Source(res.Items)}
	if opts.Typed {
		if res.Err != nil {
			return res.Err
		}
		dump.Tree = format.Typed(res.Typed)
	}

	r := cc.Renderer
	if r.Structured() {
		return r.Data(dump)
	}

	r.Header(1, path)
	tree := strings.TrimRight(dump.Tree, "\n")
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println("```")
		r.Println(tree)
		r.Println("```")
	} else {
		r.Println(tree)
	}
	if opts.Typed {
		for _, d := range res.Diagnostics {
			r.Warning(d.String())
		}
	}
	return nil
}
