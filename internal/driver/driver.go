// Package driver runs the tern front end over source text and files.
//
// A compilation lexes, parses and type checks one source with its own type
// arena. Compilations of different files are independent and CompileDir runs
// them concurrently.
package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/check"
	"github.com/leapstack-labs/tern/pkg/diag"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/typed"
	"github.com/leapstack-labs/tern/pkg/types"
)

// Extension is the file extension of tern sources.
const Extension = ".tn"

// ErrNoSources is returned by CompileDir when the directory holds no sources.
var ErrNoSources = errors.New("no tern sources found")

// PanicError wraps a panic raised while compiling a single file.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Value)
}

// Config holds driver configuration.
type Config struct {
	// TabWidth is the column width of a tab character. Zero keeps the lexer default.
	TabWidth int

	// Jobs bounds concurrent compilations in CompileDir. Zero means one per file.
	Jobs int

	// Policy decides diagnostic severities. Nil uses the defaults.
	Policy *diag.Policy

	// Output receives debug() output while asserts run. Nil discards it.
	Output io.Writer

	// MaxSteps and MaxDepth bound assertion evaluation. Zero keeps the
	// interpreter defaults.
	MaxSteps int
	MaxDepth int

	Logger *slog.Logger
}

// Driver compiles tern sources.
type Driver struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a driver.
func New(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	return &Driver{cfg: cfg, logger: logger}
}

// Result is the outcome of compiling one source.
type Result struct {
	Name        string
	Source      *token.Source
	Hash        string
	Items       []ast.Item
	Typed       []typed.Item
	Arena       *types.Arena
	Diagnostics diag.List

	// Err is a lexical, syntactic, abort or read error. Diagnostics that
	// did not abort are not errors.
	Err      error
	Duration time.Duration
}

// OK reports whether the source compiled without errors.
func (r *Result) OK() bool {
	return r.Err == nil && !r.Diagnostics.HasAtLeast(diag.SeverityError)
}

func (d *Driver) lexerOptions() []parser.LexerOption {
	if d.cfg.TabWidth > 0 {
		return []parser.LexerOption{parser.WithTabWidth(d.cfg.TabWidth)}
	}
	return nil
}

// Tokenize lexes text and returns every token up to end of input.
func (d *Driver) Tokenize(name, text string) ([]token.Token, error) {
	return parser.Tokenize(token.NewSource(name, text), d.lexerOptions()...)
}

// Compile lexes, parses and checks text.
func (d *Driver) Compile(ctx context.Context, name, text string) *Result {
	start := time.Now()
	r := &Result{
		Name:   name,
		Source: token.NewSource(name, text),
		Hash:   contentHash(text),
		Arena:  types.NewArena(),
	}
	defer func() { r.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}

	items, err := parser.Parse(r.Source, r.Arena, d.lexerOptions()...)
	if err != nil {
		r.Err = fmt.Errorf("%s: %w", name, err)
		d.logger.Debug("parse failed", slog.String("file", name), slog.Any("error", err))
		return r
	}
	r.Items = items

	checked, diags, err := check.Check(items, r.Arena,
		check.WithPolicy(d.cfg.Policy),
		check.WithLogger(d.logger),
		check.WithFile(name))
	r.Typed = checked
	r.Diagnostics = diags
	if err != nil {
		r.Err = fmt.Errorf("%s: %w", name, err)
	}

	d.logger.Debug("compiled",
		slog.String("file", name),
		slog.Int("items", len(items)),
		slog.Int("diagnostics", len(diags)),
		slog.Bool("ok", r.OK()))
	return r
}

// CompileFile reads and compiles the file at path.
func (d *Driver) CompileFile(ctx context.Context, path string) *Result {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line or a directory walk
	if err != nil {
		return &Result{Name: path, Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	return d.Compile(ctx, path, string(content))
}

// FindSources returns the tern sources under dir in lexical order.
func FindSources(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), Extension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ResolveSources expands targets into source paths. Directories are walked
// with FindSources; files are kept as given. Duplicates are dropped.
func ResolveSources(targets []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", target, err)
		}
		if !info.IsDir() {
			add(target)
			continue
		}
		paths, err := FindSources(target)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			add(p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(targets, ", "), ErrNoSources)
	}
	return out, nil
}

// CompileDir compiles every source under dir. Results are in the order of
// FindSources. A failure in one file never affects the others; the returned
// error is only set when the directory cannot be scanned, holds no sources or
// ctx is cancelled.
func (d *Driver) CompileDir(ctx context.Context, dir string) (*Batch, error) {
	paths, err := FindSources(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSources)
	}
	batch, err := d.CompileFiles(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", dir, err)
	}
	batch.Dir = dir
	return batch, nil
}

// CompileFiles compiles paths concurrently, bounded by Config.Jobs. Results
// keep the order of paths.
func (d *Driver) CompileFiles(ctx context.Context, paths []string) (*Batch, error) {
	start := time.Now()
	results := make([]*Result, len(paths))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	if d.cfg.Jobs > 0 {
		g.SetLimit(d.cfg.Jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := d.compileIsolated(gctx, path)
			if !r.OK() {
				failed.Add(1)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &Batch{Results: results, Duration: time.Since(start)}
	d.logger.Info("compiled files",
		slog.Int("files", len(results)),
		slog.Int("failed", int(failed.Load())),
		slog.Duration("duration", batch.Duration))
	return batch, nil
}

func (d *Driver) compileIsolated(ctx context.Context, path string) (r *Result) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("compiler panic", slog.String("file", path), slog.Any("panic", v))
			r = &Result{Name: path, Err: &PanicError{Value: v, Stack: string(debug.Stack())}}
		}
	}()
	return d.CompileFile(ctx, path)
}

// Batch is the outcome of CompileDir.
type Batch struct {
	Dir      string
	Results  []*Result
	Duration time.Duration
}

// Failed returns the results that did not compile cleanly.
func (b *Batch) Failed() []*Result {
	var out []*Result
	for _, r := range b.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Diagnostics returns every diagnostic of the batch sorted by file and position.
func (b *Batch) Diagnostics() diag.List {
	var out diag.List
	for _, r := range b.Results {
		out = append(out, r.Diagnostics...)
	}
	out.Sort()
	return out
}

// Summary returns a one-line description of the batch.
func (b *Batch) Summary() string {
	failed := len(b.Failed())
	return fmt.Sprintf("%d files, %d ok, %d failed in %s",
		len(b.Results), len(b.Results)-failed, failed, b.Duration.Round(time.Millisecond))
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
