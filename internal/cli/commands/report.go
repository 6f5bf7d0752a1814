package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/tern/internal/cli/output"
	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/internal/state"
	"github.com/leapstack-labs/tern/pkg/diag"
)

type assertEntry struct {
	Pos    string `json:"pos" yaml:"pos"`
	Text   string `json:"text" yaml:"text"`
	Passed bool   `json:"passed" yaml:"passed"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type fileReport struct {
	File        string           `json:"file" yaml:"file"`
	Status      state.FileStatus `json:"status" yaml:"status"`
	Hash        string           `json:"hash,omitempty" yaml:"hash,omitempty"`
	Diagnostics diag.List        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Asserts     []assertEntry    `json:"asserts,omitempty" yaml:"asserts,omitempty"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS  float64          `json:"duration_ms" yaml:"duration_ms"`

	duration time.Duration
}

func newFileReport(r *driver.Result) *fileReport {
	f := &fileReport{
		File:        r.Name,
		Status:      state.FileStatusOK,
		Hash:        r.Hash,
		Diagnostics: r.Diagnostics,
		duration:    r.Duration,
		DurationMS:  float64(r.Duration.Microseconds()) / 1000,
	}
	if !r.OK() {
		f.Status = state.FileStatusFailed
	}
	if r.Err != nil {
		f.Error = r.Err.Error()
	}
	return f
}

func (f *fileReport) addAsserts(rep *driver.AssertReport) {
	for _, a := range rep.Results {
		e := assertEntry{Pos: a.Pos.String(), Text: a.Text, Passed: a.Passed}
		if a.Err != nil {
			e.Error = a.Err.Error()
		}
		f.Asserts = append(f.Asserts, e)
	}
	if rep.Failed() > 0 {
		f.Status = state.FileStatusFailed
	}
}

func (f *fileReport) assertCounts() (passed, failed int) {
	for _, a := range f.Asserts {
		if a.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

type batchReport struct {
	Command       string        `json:"command" yaml:"command"`
	RunID         string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Files         []*fileReport `json:"files" yaml:"files"`
	Total         int           `json:"total" yaml:"total"`
	OK            int           `json:"ok" yaml:"ok"`
	Failed        int           `json:"failed" yaml:"failed"`
	Skipped       int           `json:"skipped" yaml:"skipped"`
	AssertsPassed int           `json:"asserts_passed" yaml:"asserts_passed"`
	AssertsFailed int           `json:"asserts_failed" yaml:"asserts_failed"`
	Duration      string        `json:"duration" yaml:"duration"`
}

func (b *batchReport) tally(elapsed time.Duration) {
	b.Total, b.OK, b.Failed, b.Skipped = len(b.Files), 0, 0, 0
	b.AssertsPassed, b.AssertsFailed = 0, 0
	for _, f := range b.Files {
		switch f.Status {
		case state.FileStatusOK:
			b.OK++
		case state.FileStatusFailed:
			b.Failed++
		case state.FileStatusSkipped:
			b.Skipped++
		}
		p, fl := f.assertCounts()
		b.AssertsPassed += p
		b.AssertsFailed += fl
	}
	b.Duration = elapsed.Round(time.Millisecond).String()
}

func (b *batchReport) summary() string {
	s := fmt.Sprintf("%d files, %d ok, %d failed", b.Total, b.OK, b.Failed)
	if b.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", b.Skipped)
	}
	if b.AssertsPassed+b.AssertsFailed > 0 {
		s += fmt.Sprintf("; asserts %d passed, %d failed", b.AssertsPassed, b.AssertsFailed)
	}
	return s + " in " + b.Duration
}

func (b *batchReport) err() error {
	if b.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFailed, b.summary())
}

// filterDiagnostics drops diagnostics less severe than threshold from every file.
func (b *batchReport) filterDiagnostics(threshold diag.Severity) {
	for _, f := range b.Files {
		f.Diagnostics = f.Diagnostics.Filter(threshold)
	}
}

func renderReport(r *output.Renderer, title string, b *batchReport) error {
	if r.Structured() {
		return r.Data(b)
	}

	r.Header(1, title)
	for _, f := range b.Files {
		detail := ""
		if f.Status != state.FileStatusSkipped {
			detail = f.duration.Round(time.Microsecond).String()
		}
		if p, fl := f.assertCounts(); p+fl > 0 {
			detail = fmt.Sprintf("%d/%d asserts %s", p, p+fl, detail)
		}
		r.StatusLine(f.File, string(f.Status), strings.TrimSpace(detail))

		if f.Error != "" {
			r.Println("  " + f.Error)
		}
		for _, d := range f.Diagnostics {
			r.Println("  " + d.String())
		}
		for _, a := range f.Asserts {
			if !a.Passed {
				r.Println("  " + a.Error)
			}
		}
	}
	r.Println("")
	if b.Failed > 0 {
		r.Warning(b.summary())
	} else {
		r.Success(b.summary())
	}
	return nil
}

// recorder writes a batch to the run history. A nil recorder or one without
// a store does nothing; history failures are logged, never returned.
type recorder struct {
	store  state.Store
	run    *state.Run
	logger *slog.Logger
}

func startRecording(ctx context.Context, cc *CommandContext, command string, targets []string) *recorder {
	rec := &recorder{store: cc.OpenStore(ctx), logger: cc.Logger}
	if rec.store == nil {
		return rec
	}
	run, err := rec.store.CreateRun(ctx, command, strings.Join(targets, " "))
	if err != nil {
		rec.logger.Warn("failed to record run", slog.Any("error", err))
		_ = rec.store.Close()
		rec.store = nil
		return rec
	}
	rec.run = run
	return rec
}

func (rec *recorder) runID() string {
	if rec.run == nil {
		return ""
	}
	return rec.run.ID
}

// lastPassingHash returns the content hash of path in its latest passing run.
func (rec *recorder) lastPassingHash(ctx context.Context, path string) string {
	if rec.store == nil {
		return ""
	}
	h, err := rec.store.LastPassingHash(ctx, path)
	if err != nil {
		rec.logger.Warn("failed to read history", slog.String("file", path), slog.Any("error", err))
		return ""
	}
	return h
}

func (rec *recorder) finish(ctx context.Context, b *batchReport, runErr error) {
	if rec.run == nil {
		return
	}
	cancelled := ctx.Err() != nil
	// The command context may already be cancelled; the record must still land.
	ctx = context.WithoutCancel(ctx)
	for _, f := range b.Files {
		p, fl := f.assertCounts()
		if err := rec.store.RecordFile(ctx, state.FileResult{
			RunID:         rec.run.ID,
			Path:          f.File,
			Hash:          f.Hash,
			Status:        f.Status,
			Diagnostics:   len(f.Diagnostics),
			AssertsPassed: p,
			AssertsFailed: fl,
			Duration:      f.duration,
			Error:         f.Error,
		}); err != nil {
			rec.logger.Warn("failed to record file", slog.String("file", f.File), slog.Any("error", err))
		}
	}

	c := state.Completion{
		Status:        state.RunStatusPassed,
		Files:         b.Total,
		Failed:        b.Failed,
		AssertsPassed: b.AssertsPassed,
		AssertsFailed: b.AssertsFailed,
	}
	switch {
	case runErr != nil && cancelled:
		c.Status, c.Error = state.RunStatusCancelled, runErr.Error()
	case runErr != nil:
		c.Status, c.Error = state.RunStatusFailed, runErr.Error()
	case b.Failed > 0:
		c.Status = state.RunStatusFailed
	}
	if err := rec.store.CompleteRun(ctx, rec.run.ID, c); err != nil {
		rec.logger.Warn("failed to complete run", slog.Any("error", err))
	}
}

func (rec *recorder) close() {
	if rec.store != nil {
		_ = rec.store.Close()
	}
}
