package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/leapstack-labs/tern/pkg/diag"
)

var outputModes = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TabWidth < 1 {
		return fmt.Errorf("tab_width must be at least 1, got %d", c.TabWidth)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if !validOutput(c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.OutputFormat, strings.Join(outputModes, ", "))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("invalid check configuration: %w", err)
	}
	return nil
}

// ValidateTestsDir checks that the tests directory exists.
func (c *Config) ValidateTestsDir() error {
	if _, err := os.Stat(c.TestsDir); os.IsNotExist(err) {
		return fmt.Errorf("tests directory does not exist: %s\nHint: Create the directory or use --tests-dir to specify a different path", c.TestsDir)
	}
	return nil
}

func validOutput(s string) bool {
	for _, m := range outputModes {
		if s == m {
			return true
		}
	}
	return false
}

// Policy builds the diagnostic policy described by the check section.
func (c *Config) Policy() (*diag.Policy, error) {
	p := diag.NewPolicy()
	if c.Check.AbortAt != "" {
		sev, ok := diag.ParseSeverity(c.Check.AbortAt)
		if !ok {
			return nil, fmt.Errorf("unknown severity %q for abort_at", c.Check.AbortAt)
		}
		p.AbortAt = sev
	}

	codes := make([]string, 0, len(c.Check.Severity))
	for code := range c.Check.Severity {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if _, ok := diag.Info(diag.Code(code)); !ok {
			return nil, fmt.Errorf("unknown diagnostic code %q", code)
		}
		value := c.Check.Severity[code]
		sev, ok := diag.ParseSeverity(value)
		if !ok {
			return nil, fmt.Errorf("unknown severity %q for %s", value, code)
		}
		p.SetSeverity(diag.Code(code), sev)
	}
	return p, nil
}

// ParseLevel converts a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
