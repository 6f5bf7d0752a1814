package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/internal/testutil"
)

func TestWatchDirs(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"a/x.tn": "",
		"a/y.tn": "",
		"b/z.tn": "",
	})
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")

	got := watchDirs([]string{filepath.Join(a, "x.tn"), a, filepath.Join(a, "y.tn"), b})
	assert.Equal(t, []string{a, b}, got)
}

func TestWatchLoop_Debounce(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"src/a.tn":      "",
		".hidden/h.tn":  "",
		"src/notes.txt": "",
	})

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })
	require.NoError(t, addWatchDir(watcher, dir))
	assert.NotContains(t, watcher.WatchList(), filepath.Join(dir, ".hidden"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, watcher, 50*time.Millisecond, testutil.NewTestLogger(t), func(changed []string) {
			batches <- changed
		})
	}()

	a := filepath.Join(dir, "src", "a.tn")
	b := filepath.Join(dir, "src", "b.tn")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(a, []byte("fn f() {}\n"), 0o600))
	}
	require.NoError(t, os.WriteFile(b, []byte("fn g() {}\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "notes.txt"), []byte("x"), 0o600))

	select {
	case changed := <-batches:
		assert.Equal(t, []string{a, b}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case changed := <-batches:
		t.Fatalf("unexpected second batch %v", changed)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestWatchLoop_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })
	require.NoError(t, addWatchDir(watcher, dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	go func() {
		_ = watchLoop(ctx, watcher, 20*time.Millisecond, testutil.NewTestLogger(t), func(changed []string) {
			batches <- changed
		})
	}()

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool {
		for _, w := range watcher.WatchList() {
			if w == sub {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	file := filepath.Join(sub, "new.tn")
	require.NoError(t, os.WriteFile(file, []byte("fn f() {}\n"), 0o600))

	select {
	case changed := <-batches:
		assert.Equal(t, []string{file}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
