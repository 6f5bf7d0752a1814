package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

type runDetail struct {
	Run   *state.Run         `json:"run" yaml:"run"`
	Files []state.FileResult `json:"files" yaml:"files"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded check and run invocations",
		Long: `Show the run history stored in the state database.

Without arguments the most recent runs are listed, newest first. With a run
id the per-file results of that run are shown.`,
		Example: `  tern history
  tern history --limit 5
  tern history 3f2a... -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return showRun(cmd, args[0])
			}
			return listHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to show")

	return cmd
}

func openHistory(cmd *cobra.Command) (*CommandContext, *state.SQLiteStore, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := state.Open(cmd.Context(), cc.Cfg.StatePath, cc.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return cc, store, nil
}

func listHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc, store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.Structured() {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.Data(runs)
	}

	r.Header(1, "History")
	if len(runs) == 0 {
		r.Muted("no runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Command,
			string(run.Status),
			fmt.Sprintf("%d/%d", run.Files-run.Failed, run.Files),
			fmt.Sprintf("%d/%d", run.AssertsPassed, run.AssertsPassed+run.AssertsFailed),
			run.Duration().Round(time.Millisecond).String(),
		})
	}
	r.Table([]string{"ID", "Started", "Command", "Status", "Files OK", "Asserts", "Duration"}, rows)
	return nil
}

func showRun(cmd *cobra.Command, id string) error {
	cc, store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	files, err := store.FileResults(ctx, id)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.Structured() {
		return r.Data(runDetail{Run: run, Files: files})
	}

	r.Header(1, "Run "+run.ID)
	r.Println(fmt.Sprintf("%s %s: %s", run.Command, run.Target, run.Status))
	if run.Error != "" {
		r.Warning(run.Error)
	}
	r.Println("")

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.Path,
			string(f.Status),
			strconv.Itoa(f.Diagnostics),
			fmt.Sprintf("%d/%d", f.AssertsPassed, f.AssertsPassed+f.AssertsFailed),
			f.Duration.Round(time.Microsecond).String(),
		})
	}
	r.Table([]string{"File", "Status", "Diagnostics", "Asserts", "Duration"}, rows)
	return nil
}
