package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/callgraph"
)

type callEntry struct {
	Function  string   `json:"function" yaml:"function"`
	Extern    bool     `json:"extern,omitempty" yaml:"extern,omitempty"`
	Calls     []string `json:"calls" yaml:"calls"`
	CalledBy  []string `json:"called_by" yaml:"called_by"`
	Recursive bool     `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	Tested    bool     `json:"tested" yaml:"tested"`
}

type callsReport struct {
	File      string      `json:"file" yaml:"file"`
	Functions []callEntry `json:"functions" yaml:"functions"`
	Levels    [][]string  `json:"levels,omitempty" yaml:"levels,omitempty"`
	Untested  []string    `json:"untested" yaml:"untested"`
}

// NewCallsCommand creates the calls command.
func NewCallsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calls <file>",
		Short: "Show which functions call which",
		Long: `Type check a source file and print its call graph: for every function the
functions it calls and is called by, whether it is recursive and whether any
assert reaches it.

Without recursion the functions are also listed in levels, leaf functions
first.`,
		Example: `  tern calls lib.tn
  tern calls lib.tn -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalls(cmd, args[0])
		},
	}
}

func runCalls(cmd *cobra.Command, path string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	res := cc.Driver.CompileFile(cmd.Context(), path)
	if err := compileError(res); err != nil {
		return err
	}

	g := callgraph.Build(res.Typed)
	recursive := g.Recursive()
	tested := g.Tested()

	report := callsReport{File: path, Untested: g.Untested()}
	if report.Untested == nil {
		report.Untested = []string{}
	}
	for _, n := range g.Nodes() {
		e := callEntry{
			Function:  n.Name,
			Extern:    n.Fn != nil && n.Fn.Extern,
			Calls:     nonNil(g.Callees(n.Name)),
			CalledBy:  nonNil(g.Callers(n.Name)),
			Recursive: slices.Contains(recursive, n.Name),
			Tested:    slices.Contains(tested, n.Name),
		}
		report.Functions = append(report.Functions, e)
	}
	if len(recursive) == 0 {
		report.Levels, _ = g.Levels()
	}

	r := cc.Renderer
	if r.Structured() {
		return r.Data(report)
	}

	r.Header(1, "Calls in "+path)
	rows := make([][]string, 0, len(report.Functions))
	for _, e := range report.Functions {
		var notes []string
		if e.Extern {
			notes = append(notes, "extern")
		}
		if e.Recursive {
			notes = append(notes, "recursive")
		}
		if !e.Tested && !e.Extern {
			notes = append(notes, "untested")
		}
		rows = append(rows, []string{e.Function, strings.Join(e.Calls, ", "), strings.Join(e.CalledBy, ", "), strings.Join(notes, ", ")})
	}
	r.Table([]string{"Function", "Calls", "Called By", "Notes"}, rows)

	if len(report.Levels) > 0 {
		r.Println("")
		r.Header(2, "Levels")
		for i, level := range report.Levels {
			r.Println(fmt.Sprintf("%d: %s", i, strings.Join(level, ", ")))
		}
	}
	if len(report.Untested) > 0 {
		r.Println("")
		r.Warning(fmt.Sprintf("%d functions not reached by any assert: %s", len(report.Untested), strings.Join(report.Untested, ", ")))
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
