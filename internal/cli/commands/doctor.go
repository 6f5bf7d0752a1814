package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/cli/output"
	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/internal/state"
	"github.com/leapstack-labs/tern/pkg/diag"
)

// Health check statuses.
const (
	healthPass  = "pass"
	healthWarn  = "warn"
	healthError = "error"
)

// DoctorOutput is the report of the doctor command.
type DoctorOutput struct {
	ConfigFile   string         `json:"config_file" yaml:"config_file"`
	ProjectRoot  string         `json:"project_root" yaml:"project_root"`
	HealthChecks []HealthCheck  `json:"health_checks" yaml:"health_checks"`
	CodeCounts   map[string]int `json:"code_counts,omitempty" yaml:"code_counts,omitempty"`
}

// HealthCheck is a single health check result.
type HealthCheck struct {
	Name    string   `json:"name" yaml:"name"`
	Status  string   `json:"status" yaml:"status"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup",
		Long: `Check that the project is set up correctly:
  - a configuration file is found and its check policy is valid
  - the tests directory exists and holds sources
  - every source lexes and parses
  - the history database opens and is migrated

Diagnostics of all sources are counted by code.`,
		Example: `  tern doctor
  tern doctor -o json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	out := &DoctorOutput{ConfigFile: cc.Cfg.ConfigFile, ProjectRoot: cc.Cfg.ProjectRoot}
	out.HealthChecks = append(out.HealthChecks, configCheck(cc))
	sources, check := sourcesCheck(cc)
	out.HealthChecks = append(out.HealthChecks, check)
	if len(sources) > 0 {
		check, counts := parseCheck(ctx, cc, sources)
		out.HealthChecks = append(out.HealthChecks, check)
		out.CodeCounts = counts
	}
	out.HealthChecks = append(out.HealthChecks, historyCheck(ctx, cc))

	r := cc.Renderer
	if r.Structured() {
		return r.Data(out)
	}
	renderDoctor(r, out)
	for _, c := range out.HealthChecks {
		if c.Status == healthError {
			return fmt.Errorf("%w: %s check failed", ErrFailed, c.Name)
		}
	}
	return nil
}

func configCheck(cc *CommandContext) HealthCheck {
	c := HealthCheck{Name: "configuration", Status: healthPass}
	if cc.Cfg.ConfigFile == "" {
		c.Status = healthWarn
		c.Details = append(c.Details, "no tern.yaml found; using defaults")
	} else {
		c.Details = append(c.Details, "using "+cc.Cfg.ConfigFile)
	}
	if _, err := cc.Cfg.Policy(); err != nil {
		c.Status = healthError
		c.Details = append(c.Details, err.Error())
	}
	return c
}

func sourcesCheck(cc *CommandContext) ([]string, HealthCheck) {
	c := HealthCheck{Name: "tests directory", Status: healthPass}
	if err := cc.Cfg.ValidateTestsDir(); err != nil {
		c.Status = healthError
		c.Details = append(c.Details, err.Error())
		return nil, c
	}
	sources, err := driver.FindSources(cc.Cfg.TestsDir)
	if err != nil {
		c.Status = healthError
		c.Details = append(c.Details, err.Error())
		return nil, c
	}
	if len(sources) == 0 {
		c.Status = healthWarn
		c.Details = append(c.Details, "no "+driver.Extension+" files in "+cc.Cfg.TestsDir)
		return nil, c
	}
	c.Details = append(c.Details, fmt.Sprintf("%d sources in %s", len(sources), cc.Cfg.TestsDir))
	return sources, c
}

func parseCheck(ctx context.Context, cc *CommandContext, sources []string) (HealthCheck, map[string]int) {
	c := HealthCheck{Name: "sources", Status: healthPass}
	batch, err := cc.Driver.CompileFiles(ctx, sources)
	if err != nil {
		c.Status = healthError
		c.Details = append(c.Details, err.Error())
		return c, nil
	}

	counts := make(map[string]int)
	for _, r := range batch.Results {
		for _, d := range r.Diagnostics {
			counts[string(d.Code)]++
		}
		if r.Err != nil && len(r.Diagnostics) == 0 {
			c.Status = healthError
			c.Details = append(c.Details, r.Err.Error())
		}
	}
	if n := len(batch.Failed()); n > 0 && c.Status == healthPass {
		c.Status = healthWarn
		c.Details = append(c.Details, fmt.Sprintf("%d of %d sources have type errors", n, len(batch.Results)))
	}
	if c.Status == healthPass {
		c.Details = append(c.Details, batch.Summary())
	}
	return c, counts
}

func historyCheck(ctx context.Context, cc *CommandContext) HealthCheck {
	c := HealthCheck{Name: "history", Status: healthPass}
	if cc.Cfg.NoHistory {
		c.Status = healthWarn
		c.Details = append(c.Details, "history disabled")
		return c
	}
	if _, err := os.Stat(cc.Cfg.StatePath); err != nil {
		c.Details = append(c.Details, "no history yet at "+cc.Cfg.StatePath)
		return c
	}
	store, err := state.Open(ctx, cc.Cfg.StatePath, cc.Logger)
	if err != nil {
		c.Status = healthError
		c.Details = append(c.Details, err.Error())
		return c
	}
	defer func() { _ = store.Close() }()

	version, err := store.MigrationVersion(ctx)
	if err != nil {
		c.Status = healthError
		c.Details = append(c.Details, err.Error())
		return c
	}
	c.Details = append(c.Details, fmt.Sprintf("%s at schema version %d", cc.Cfg.StatePath, version))
	return c
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) {
	r.Header(1, "Project Health")
	for _, c := range out.HealthChecks {
		status := "success"
		switch c.Status {
		case healthWarn:
			status = "warning"
		case healthError:
			status = "failed"
		}
		r.StatusLine(output.Title(c.Name), status, "")
		for _, d := range c.Details {
			r.Muted("    " + d)
		}
	}

	if len(out.CodeCounts) == 0 {
		return
	}
	codes := make([]string, 0, len(out.CodeCounts))
	for code := range out.CodeCounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, []string{code, diag.DefaultSeverity(diag.Code(code)).String(), fmt.Sprint(out.CodeCounts[code])})
	}
	r.Println("")
	r.Header(2, "Diagnostics")
	r.Table([]string{"Code", "Default Severity", "Count"}, rows)
}
