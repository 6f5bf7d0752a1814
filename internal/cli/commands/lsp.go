package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/cli/config"
	"github.com/leapstack-labs/tern/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. Open documents are
checked on every change with the diagnostic policy of the project
configuration.`,
		Example: `  # Usually started by an editor
  tern lsp`,
		Args: cobra.NoArgs,
		RunE: runLSP,
	}
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cfg := config.FromContext(cmd.Context())
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), lsp.Options{
		Policy: policy,
		Logger: config.GetLogger(cmd.Context()),
	})
	return server.Run(cmd.Context())
}
