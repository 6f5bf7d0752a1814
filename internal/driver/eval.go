package driver

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/tern/pkg/interp"
	"github.com/leapstack-labs/tern/pkg/typed"
)

// Execute calls the function name of a compiled result with args.
func (d *Driver) Execute(ctx context.Context, r *Result, name string, args []interp.Value) (interp.Value, error) {
	prog, err := d.program(ctx, r)
	if err != nil {
		return nil, err
	}
	return prog.Execute(name, args)
}

// Eval evaluates e, an expression typed as part of r, with every function of
// r callable.
func (d *Driver) Eval(ctx context.Context, r *Result, e *typed.Expr) (interp.Value, error) {
	prog, err := d.program(ctx, r)
	if err != nil {
		return nil, err
	}
	unit, err := interp.BuildExpr("eval", e)
	if err != nil {
		return nil, err
	}
	return prog.Run(unit)
}

func (d *Driver) program(ctx context.Context, r *Result) (*interp.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, fmt.Errorf("%s: %w", r.Name, ErrNotCompiled)
	}
	prog, err := interp.BuildProgram(r.Typed, d.programOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", r.Name, err)
	}
	return prog, nil
}
