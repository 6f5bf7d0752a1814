package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/pkg/typed"
)

const (
	replPrompt     = "tern> "
	replContPrompt = "  ... "
	replFunc       = "__repl"
)

// declKeywords start a declaration rather than an expression.
var declKeywords = []string{"fn ", "extern ", "struct "}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl [file...]",
		Short: "Interactive tern session",
		Long: `Start an interactive session.

Declarations (fn, extern, struct) are checked and kept for the rest of the
session. Asserts are evaluated immediately. Anything else is evaluated as an
expression and printed with its type. Files given as arguments are loaded
first.`,
		Example: `  tern repl
  tern repl lib.tn`,
		RunE: runREPL,
	}
}

// replSession holds the declarations entered so far.
type replSession struct {
	driver *driver.Driver
	out    io.Writer
	defs   strings.Builder
}

func newREPLSession(d *driver.Driver, out io.Writer) *replSession {
	return &replSession{driver: d, out: out}
}

// load adds the declarations of a file to the session.
func (s *replSession) load(ctx context.Context, name, text string) error {
	r := s.driver.Compile(ctx, name, s.defs.String()+text)
	if err := compileError(r); err != nil {
		return err
	}
	s.defs.WriteString(text)
	s.defs.WriteString("\n")
	return nil
}

// eval handles one complete input.
func (s *replSession) eval(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if strings.HasPrefix(input, "assert ") {
		return s.evalAssert(ctx, input)
	}
	for _, kw := range declKeywords {
		if strings.HasPrefix(input, kw) {
			return s.load(ctx, "<repl>", input)
		}
	}
	return s.evalExpr(ctx, strings.TrimSuffix(input, ";"))
}

func (s *replSession) evalAssert(ctx context.Context, input string) error {
	if !strings.HasSuffix(input, ";") {
		input += ";"
	}
	r := s.driver.Compile(ctx, "<repl>", s.defs.String()+input)
	if err := compileError(r); err != nil {
		return err
	}
	report, err := s.driver.RunAsserts(ctx, r)
	if err != nil {
		return err
	}
	// Asserts loaded from files run again; only the last one is the input.
	if n := len(report.Results); n > 0 && report.Results[n-1].Err != nil {
		return report.Results[n-1].Err
	}
	_, _ = fmt.Fprintln(s.out, "ok")
	return nil
}

func (s *replSession) evalExpr(ctx context.Context, expr string) error {
	src := s.defs.String() + "fn " + replFunc + "() { debug(" + expr + "); }\n"
	r := s.driver.Compile(ctx, "<repl>", src)
	if err := compileError(r); err != nil {
		return err
	}

	arg := replArgument(r.Typed)
	if arg == nil {
		return errors.New("not an expression")
	}
	v, err := s.driver.Eval(ctx, r, arg)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "%s : %s\n", v, arg.Ty)
	return nil
}

// replArgument finds the argument of the debug call wrapping the input.
func replArgument(items []typed.Item) *typed.Expr {
	for _, fn := range typed.Functions(items) {
		if fn.Name != replFunc || len(fn.Body) == 0 {
			continue
		}
		stmt, ok := fn.Body[0].(*typed.ExprStmt)
		if !ok {
			return nil
		}
		call, ok := stmt.X.Node.(*typed.Call)
		if !ok || len(call.Args) != 1 {
			return nil
		}
		return call.Args[0]
	}
	return nil
}

// compileError turns a failed compilation into an error listing its
// diagnostics.
func compileError(r *driver.Result) error {
	if r.OK() {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	var msgs []string
	for _, d := range r.Diagnostics {
		msgs = append(msgs, d.String())
	}
	return errors.New(strings.Join(msgs, "\n"))
}

// complete reports whether the braces of input are balanced.
func complete(input string) bool {
	return strings.Count(input, "{") <= strings.Count(input, "}")
}

func runREPL(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	session := newREPLSession(cc.Driver, out)

	for _, path := range args {
		content, err := os.ReadFile(path) //nolint:gosec // G304: path is a command argument
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := session.load(ctx, path, string(content)); err != nil {
			return err
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(cc.Cfg.StatePath), "repl_history"),
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          out,
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(out, "tern REPL. Type .help for commands, .quit to exit")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ".") {
			if quit := handleREPLCommand(session, strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		if !complete(buf.String()) {
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		input := buf.String()
		buf.Reset()
		if err := session.eval(ctx, input); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
}

func handleREPLCommand(s *replSession, line string) (quit bool) {
	switch strings.Fields(line)[0] {
	case ".quit", ".exit":
		return true
	case ".defs":
		_, _ = fmt.Fprint(s.out, s.defs.String())
	case ".reset":
		s.defs.Reset()
	case ".help":
		_, _ = fmt.Fprint(s.out, `
Commands:
  .defs           Show the declarations of this session
  .reset          Forget all declarations
  .quit / .exit   Exit the REPL

Input:
  fn, extern and struct declarations are kept for the session
  assert <expr>;  evaluates an assertion
  anything else is evaluated as an expression
`)
	default:
		_, _ = fmt.Fprintf(s.out, "Unknown command: %s (type .help for commands)\n", line)
	}
	return false
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".defs"),
		readline.PcItem(".reset"),
		readline.PcItem(".quit"),
		readline.PcItem("fn"),
		readline.PcItem("assert"),
		readline.PcItem("debug("),
	)
}
