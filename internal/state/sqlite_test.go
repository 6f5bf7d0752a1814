package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "tern.db")
	store, err := Open(context.Background(), path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	version, err := store.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Migrating again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"runs", "file_results"} {
		rows, err := store.db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run, err := store.CreateRun(context.Background(), "check", "x.tn")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "run", "tests")
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Len(t, run.ID, 36)

	results := []FileResult{
		{RunID: run.ID, Path: "tests/a.tn", Hash: "aaa", Status: FileStatusOK, AssertsPassed: 2, Duration: 15 * time.Millisecond},
		{RunID: run.ID, Path: "tests/b.tn", Hash: "bbb", Status: FileStatusFailed, Diagnostics: 1, Error: "mismatched types"},
	}
	for _, r := range results {
		require.NoError(t, store.RecordFile(ctx, r))
	}

	require.NoError(t, store.CompleteRun(ctx, run.ID, Completion{
		Status: RunStatusFailed, Files: 2, Failed: 1, AssertsPassed: 2,
	}))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "run", got.Command)
	assert.Equal(t, "tests", got.Target)
	assert.Equal(t, 2, got.Files)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 2, got.AssertsPassed)
	require.NotNil(t, got.CompletedAt)
	assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))
	assert.Empty(t, got.Error)

	files, err := store.FileResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "tests/a.tn", files[0].Path)
	assert.Equal(t, 15*time.Millisecond, files[0].Duration)
	assert.Equal(t, FileStatusFailed, files[1].Status)
	assert.Equal(t, "mismatched types", files[1].Error)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = store.CompleteRun(ctx, "missing", Completion{Status: RunStatusPassed})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, cmd := range []string{"check", "run", "fmt"} {
		run, err := store.CreateRun(ctx, cmd, ".")
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all", limit: 0, want: []string{ids[2], ids[1], ids[0]}},
		{name: "limited", limit: 2, want: []string{ids[2], ids[1]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.ListRuns(ctx, tt.limit)
			require.NoError(t, err)
			var got []string
			for _, r := range runs {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteStore_LastPassingHash(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	hash, err := store.LastPassingHash(ctx, "a.tn")
	require.NoError(t, err)
	assert.Empty(t, hash)

	run, err := store.CreateRun(ctx, "check", "a.tn")
	require.NoError(t, err)
	require.NoError(t, store.RecordFile(ctx, FileResult{RunID: run.ID, Path: "a.tn", Hash: "v1", Status: FileStatusOK}))
	require.NoError(t, store.RecordFile(ctx, FileResult{RunID: run.ID, Path: "a.tn", Hash: "v2", Status: FileStatusFailed}))

	hash, err = store.LastPassingHash(ctx, "a.tn")
	require.NoError(t, err)
	assert.Equal(t, "v1", hash)
}

func TestSQLiteStore_NotOpen(t *testing.T) {
	store := NewSQLiteStore(nil)
	_, err := store.CreateRun(context.Background(), "check", "x")
	assert.ErrorIs(t, err, errNotOpen)
	assert.NoError(t, store.Close())
}
