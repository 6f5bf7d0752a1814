package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/pkg/format"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
)

// FmtOptions holds options for the fmt command.
type FmtOptions struct {
	Write bool // Rewrite files in place
	Check bool // Report unformatted files and fail
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	opts := &FmtOptions{}
	cmd := &cobra.Command{
		Use:   "fmt [path...]",
		Short: "Format tern sources",
		Long: `Print tern sources in canonical layout.

By default the formatted source is written to standard output. Use --write to
rewrite files in place, or --check to list files whose layout differs and exit
non-zero. Comments are not preserved.`,
		Example: `  tern fmt lib.tn
  tern fmt --write tests/
  tern fmt --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write the result back to each file")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "List files that are not formatted and fail")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

func runFmt(cmd *cobra.Command, args []string, opts *FmtOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	paths, err := driver.ResolveSources(cc.Targets(args))
	if err != nil {
		return err
	}

	r := cc.Renderer
	var unformatted []string
	for _, path := range paths {
		content, err := os.ReadFile(path) //nolint:gosec // G304: path is a command argument or found by walking one
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		formatted, err := format.Reformat(token.NewSource(path, string(content)), parser.WithTabWidth(cc.Cfg.TabWidth))
		if err != nil {
			return err
		}

		switch {
		case opts.Check:
			if formatted != string(content) {
				unformatted = append(unformatted, path)
			}
		case opts.Write:
			if formatted == string(content) {
				continue
			}
			if err := os.WriteFile(path, []byte(formatted), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			r.Muted("formatted " + path)
		default:
			r.Printf("%s", formatted)
		}
	}

	if opts.Check && len(unformatted) > 0 {
		for _, path := range unformatted {
			r.StatusLine(path, "failed", "not formatted")
		}
		return fmt.Errorf("%w: %d of %d files not formatted", ErrFailed, len(unformatted), len(paths))
	}
	return nil
}
