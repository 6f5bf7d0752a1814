package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/cli/output"
	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/internal/state"
	"github.com/leapstack-labs/tern/pkg/interp"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Dump    bool // Print the IR of every unit before running
	Changed bool // Skip files unchanged since their last passing run
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Check sources and evaluate their asserts",
		Long: `Check tern sources, then evaluate every top-level assert of the files
that checked cleanly. An assert of the form "assert a == b;" reports both
sides when it fails. A failing assert does not stop the ones after it.

Without arguments the configured tests directory is run. Each run is recorded
in the history database unless --no-history is set.`,
		Example: `  # Run the tests directory
  tern run

  # Run one file and show its IR
  tern run tests/math.tn --dump

  # Skip files that passed last time and have not changed
  tern run --changed`,
		Aliases: []string{"test"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "Print the IR of every compiled unit")
	cmd.Flags().BoolVar(&opts.Changed, "changed", false, "Skip files unchanged since their last passing run")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	start := time.Now()

	targets := cc.Targets(args)
	paths, err := driver.ResolveSources(targets)
	if err != nil {
		return err
	}

	rec := startRecording(ctx, cc, "run", targets)
	defer rec.close()

	report := &batchReport{Command: "run", RunID: rec.runID()}
	batch, err := cc.Driver.CompileFiles(ctx, paths)
	if err != nil {
		rec.finish(ctx, report, err)
		return err
	}

	for _, r := range batch.Results {
		f, err := runFile(ctx, cc, rec, r, opts)
		if err != nil {
			report.tally(time.Since(start))
			rec.finish(ctx, report, err)
			return err
		}
		report.Files = append(report.Files, f)
	}
	report.tally(time.Since(start))
	rec.finish(ctx, report, nil)

	if err := renderReport(cc.Renderer, "Run", report); err != nil {
		return err
	}
	return report.err()
}

// runFile evaluates the asserts of one compiled file. Only cancellation is
// returned as an error; everything else is part of the file report.
func runFile(ctx context.Context, cc *CommandContext, rec *recorder, r *driver.Result, opts *RunOptions) (*fileReport, error) {
	f := newFileReport(r)
	if !r.OK() {
		return f, nil
	}

	if opts.Changed && r.Hash != "" && rec.lastPassingHash(ctx, r.Name) == r.Hash {
		cc.Logger.Debug("skipping unchanged file", slog.String("file", r.Name))
		f.Status = state.FileStatusSkipped
		return f, nil
	}

	if opts.Dump && !cc.Renderer.Structured() {
		if err := dumpIR(cc, r); err != nil {
			f.Status = state.FileStatusFailed
			f.Error = err.Error()
			return f, nil
		}
	}

	asserts, err := cc.Driver.RunAsserts(ctx, r)
	if asserts != nil {
		f.addAsserts(asserts)
	}
	if err != nil {
		if ctx.Err() != nil {
			return f, err
		}
		f.Status = state.FileStatusFailed
		f.Error = err.Error()
	}
	return f, nil
}

func dumpIR(cc *CommandContext, r *driver.Result) error {
	prog, err := interp.BuildProgram(r.Typed)
	if err != nil {
		return err
	}
	cc.Renderer.Header(2, r.Name)
	w := cc.Renderer.Writer()
	if cc.Renderer.EffectiveMode() == output.ModeMarkdown {
		cc.Renderer.Println("```")
		defer cc.Renderer.Println("```")
	}
	return interp.DumpProgram(w, prog)
}
