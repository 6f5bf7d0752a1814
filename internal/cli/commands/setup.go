package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/cli/config"
	"github.com/leapstack-labs/tern/internal/cli/output"
	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/internal/state"
)

// ErrFailed is returned by commands that completed but found failures, so
// the process exits non-zero after the report is printed.
var ErrFailed = errors.New("failures reported")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Driver   *driver.Driver
}

// NewCommandContext builds the renderer and driver from the configuration
// stored in the command context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	// debug() output must not corrupt machine readable output.
	var programOut io.Writer = cmd.OutOrStdout()
	if r.Structured() {
		programOut = cmd.ErrOrStderr()
	}

	d := driver.New(driver.Config{
		TabWidth: cfg.TabWidth,
		Jobs:     cfg.Jobs,
		Policy:   policy,
		Output:   programOut,
		MaxSteps: cfg.Run.MaxSteps,
		MaxDepth: cfg.Run.MaxDepth,
		Logger:   logger,
	})

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Driver:   d,
	}, nil
}

// Targets returns args, or the configured tests directory when args is empty.
func (c *CommandContext) Targets(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{c.Cfg.TestsDir}
}

// OpenStore opens the run history. It returns a nil store when history is
// disabled, and logs instead of failing when the database cannot be opened.
func (c *CommandContext) OpenStore(ctx context.Context) state.Store {
	if c.Cfg.NoHistory || c.Cfg.StatePath == "" {
		return nil
	}
	store, err := state.Open(ctx, c.Cfg.StatePath, c.Logger)
	if err != nil {
		c.Logger.Warn("run history disabled", slog.String("path", c.Cfg.StatePath), slog.Any("error", err))
		return nil
	}
	return store
}
