package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/cli/output"
	"github.com/leapstack-labs/tern/pkg/diag"
)

type codeEntry struct {
	Code            diag.Code     `json:"code" yaml:"code"`
	DefaultSeverity diag.Severity `json:"default_severity" yaml:"default_severity"`
	Severity        diag.Severity `json:"severity" yaml:"severity"`
	Description     string        `json:"description" yaml:"description"`
}

// NewCodesCommand creates the codes command.
func NewCodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "codes [code]",
		Short: "List diagnostic codes and their severities",
		Long: `List every diagnostic code the type checker can report, with its built-in
severity and the severity in effect after applying check.severity overrides
from the configuration.

Diagnostics at or above check.abort_at stop the compilation of a file.`,
		Example: `  tern codes
  tern codes mismatched-types
  tern codes -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCodes,
	}
}

func runCodes(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	policy, err := cc.Cfg.Policy()
	if err != nil {
		return err
	}

	var entries []codeEntry
	for _, info := range diag.AllCodes() {
		if len(args) > 0 && string(info.Code) != args[0] {
			continue
		}
		entries = append(entries, codeEntry{
			Code:            info.Code,
			DefaultSeverity: info.DefaultSeverity,
			Severity:        policy.GetSeverity(info.Code),
			Description:     info.Description,
		})
	}
	if len(args) > 0 && len(entries) == 0 {
		return fmt.Errorf("diagnostic code %q not found", args[0])
	}

	r := cc.Renderer
	if r.Structured() {
		return r.Data(entries)
	}

	r.Header(1, "Diagnostic Codes")
	r.Muted(fmt.Sprintf("abort at: %s", policy.AbortAt))
	r.Println("")

	// Grouped by effective severity, most severe first.
	for sev := diag.SeverityFatal; sev <= diag.SeverityHint; sev++ {
		var rows [][]string
		for _, e := range entries {
			if e.Severity != sev {
				continue
			}
			marker := ""
			if e.Severity != e.DefaultSeverity {
				marker = fmt.Sprintf("(default %s)", e.DefaultSeverity)
			}
			rows = append(rows, []string{string(e.Code), e.Description, marker})
		}
		if len(rows) == 0 {
			continue
		}
		r.Header(2, output.Title(sev.String()))
		r.Table([]string{"Code", "Description", "Override"}, rows)
		r.Println("")
	}
	return nil
}
