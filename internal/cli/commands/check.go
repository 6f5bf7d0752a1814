package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/pkg/diag"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Severity string // Minimum severity to display
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Type check tern sources",
		Long: `Lex, parse and type check tern sources.

Paths may be files or directories; directories are searched recursively for
*.tn files. Without arguments the configured tests directory is checked.
Files are checked concurrently and independently: an error in one file never
hides the results of another.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # Check the tests directory
  tern check

  # Check specific files
  tern check lib.tn tests/

  # Only show errors
  tern check --severity error

  # Machine readable report
  tern check -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Severity, "severity", "hint", "Minimum severity to display: fatal, error, warning, info, hint")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	threshold, ok := diag.ParseSeverity(opts.Severity)
	if !ok {
		return fmt.Errorf("unknown severity %q", opts.Severity)
	}

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	return checkTargets(cmd.Context(), cc, cc.Targets(args), threshold, true)
}

// checkTargets checks every source under targets and renders the report.
// With record set the batch is written to the run history.
func checkTargets(ctx context.Context, cc *CommandContext, targets []string, threshold diag.Severity, record bool) error {
	start := time.Now()
	paths, err := driver.ResolveSources(targets)
	if err != nil {
		return err
	}

	rec := &recorder{logger: cc.Logger}
	if record {
		rec = startRecording(ctx, cc, "check", targets)
	}
	defer rec.close()

	report := &batchReport{Command: "check", RunID: rec.runID()}
	batch, err := cc.Driver.CompileFiles(ctx, paths)
	if err != nil {
		rec.finish(ctx, report, err)
		return err
	}
	for _, r := range batch.Results {
		report.Files = append(report.Files, newFileReport(r))
	}
	report.tally(time.Since(start))
	rec.finish(ctx, report, nil)

	report.filterDiagnostics(threshold)
	if err := renderReport(cc.Renderer, "Check", report); err != nil {
		return err
	}
	return report.err()
}
