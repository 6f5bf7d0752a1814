// Package state records the history of check and run invocations in SQLite.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusPassed    RunStatus = "passed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// FileStatus is the outcome of one file within a run.
type FileStatus string

// File statuses.
const (
	FileStatusOK      FileStatus = "ok"
	FileStatusFailed  FileStatus = "failed"
	FileStatusSkipped FileStatus = "skipped" // unchanged since its last passing run
)

// Run is one invocation of a command over a file or directory.
type Run struct {
	ID            string     `json:"id" yaml:"id"`
	Command       string     `json:"command" yaml:"command"`
	Target        string     `json:"target" yaml:"target"`
	Status        RunStatus  `json:"status" yaml:"status"`
	StartedAt     time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Files         int        `json:"files" yaml:"files"`
	Failed        int        `json:"failed" yaml:"failed"`
	AssertsPassed int        `json:"asserts_passed" yaml:"asserts_passed"`
	AssertsFailed int        `json:"asserts_failed" yaml:"asserts_failed"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// FileResult is the outcome of compiling, and optionally running, one file.
type FileResult struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	Path          string        `json:"path" yaml:"path"`
	Hash          string        `json:"hash" yaml:"hash"`
	Status        FileStatus    `json:"status" yaml:"status"`
	Diagnostics   int           `json:"diagnostics" yaml:"diagnostics"`
	AssertsPassed int           `json:"asserts_passed" yaml:"asserts_passed"`
	AssertsFailed int           `json:"asserts_failed" yaml:"asserts_failed"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Completion carries the totals written when a run finishes.
type Completion struct {
	Status        RunStatus
	Files         int
	Failed        int
	AssertsPassed int
	AssertsFailed int
	Error         string
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, command, target string) (*Run, error)
	RecordFile(ctx context.Context, result FileResult) error
	CompleteRun(ctx context.Context, id string, c Completion) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	FileResults(ctx context.Context, runID string) ([]FileResult, error)
	LastPassingHash(ctx context.Context, path string) (string, error)
	Close() error
}
