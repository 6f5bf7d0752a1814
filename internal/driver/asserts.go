package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/interp"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/typed"
)

// ErrNotCompiled is returned when asserts are requested for a result that
// failed to compile.
var ErrNotCompiled = errors.New("source did not compile")

// AssertionError describes a failed assert.
type AssertionError struct {
	File string
	Pos  token.Position
	Text string

	// Expected and Actual are set for asserts of the form lhs == rhs.
	Expected interp.Value
	Actual   interp.Value
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s:%s: assertion failed: %s", e.File, e.Pos, e.Text)
	if e.Expected != nil {
		msg += fmt.Sprintf(" (expected %s, got %s)", e.Expected, e.Actual)
	}
	return msg
}

func (e *AssertionError) Unwrap() error { return interp.ErrAssertion }

// AssertResult is the outcome of one assert item.
type AssertResult struct {
	Pos    token.Position
	Text   string
	Passed bool
	Actual interp.Value

	// Err is an *AssertionError when the check was false, or the runtime
	// error that stopped evaluation.
	Err error
}

// AssertReport collects the assert results of one file.
type AssertReport struct {
	File    string
	Results []AssertResult
}

// Passed returns the number of passing asserts.
func (r *AssertReport) Passed() int {
	n := 0
	for _, a := range r.Results {
		if a.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing asserts.
func (r *AssertReport) Failed() int {
	return len(r.Results) - r.Passed()
}

// RunAsserts evaluates every top-level assert of a compiled result in source
// order. A failing assert does not stop the ones after it.
func (d *Driver) RunAsserts(ctx context.Context, r *Result) (*AssertReport, error) {
	prog, err := d.program(ctx, r)
	if err != nil {
		return nil, err
	}

	report := &AssertReport{File: r.Name}
	for _, item := range r.Typed {
		a, ok := item.(*typed.Assert)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := d.evalAssert(prog, r, a)
		d.logger.Debug("assert",
			slog.String("file", r.Name),
			slog.String("pos", a.At.String()),
			slog.Bool("passed", res.Passed))
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (d *Driver) programOptions() []interp.ProgramOption {
	return []interp.ProgramOption{
		interp.WithOutput(d.cfg.Output),
		interp.WithLogger(d.logger),
		interp.WithLimits(d.cfg.MaxSteps, d.cfg.MaxDepth),
	}
}

// evalAssert runs the assert condition. For an equality both sides are
// evaluated as a pair so a failure can show them.
func (d *Driver) evalAssert(prog *interp.Program, r *Result, a *typed.Assert) AssertResult {
	res := AssertResult{Pos: a.At, Text: assertText(r.Source, a.At)}
	fail := &AssertionError{File: r.Name, Pos: a.At, Text: res.Text}

	ret := a.Cond
	eq, isEq := a.Cond.Node.(*typed.Infix)
	isEq = isEq && eq.Op == ast.Eq
	if isEq {
		ret = &typed.Expr{Pos: a.Cond.Pos, Node: &typed.TupleLit{Elems: []*typed.Expr{eq.Left, eq.Right}}}
	}

	unit, err := interp.BuildExpr("assert@"+a.At.String(), ret)
	if err != nil {
		res.Err = err
		return res
	}
	v, err := prog.Run(unit)
	if err != nil {
		res.Err = err
		return res
	}

	if isEq {
		pair, ok := v.(interp.Tuple)
		if !ok || len(pair) != 2 {
			res.Err = fmt.Errorf("%w: assert produced %s", interp.ErrType, v)
			return res
		}
		res.Actual = pair[0]
		res.Passed = interp.Equal(pair[0], pair[1])
		fail.Actual, fail.Expected = pair[0], pair[1]
	} else {
		res.Actual = v
		res.Passed = v == interp.Bool(true)
	}
	if !res.Passed {
		res.Err = fail
	}
	return res
}

// assertText returns the assert statement starting at pos, up to its semicolon.
func assertText(src *token.Source, pos token.Position) string {
	if src == nil || pos.Offset < 0 || pos.Offset >= len(src.Text) {
		return "assert"
	}
	text := src.Text[pos.Offset:]
	if i := strings.IndexByte(text, ';'); i >= 0 {
		text = text[:i+1]
	}
	return strings.Join(strings.Fields(text), " ")
}
