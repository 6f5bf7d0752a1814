package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/pkg/diag"
)

// DefaultDebounce is how long watch waits after the last change before
// checking again.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
	Severity string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Re-check sources whenever they change",
		Long: `Check tern sources, then watch them and check again after every change.

Changes are debounced: a burst of writes triggers a single check. Watch runs
are not recorded in the history. Press Ctrl+C to stop.`,
		Example: `  tern watch
  tern watch src/ --debounce 250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "Quiet period before re-checking")
	cmd.Flags().StringVar(&opts.Severity, "severity", "hint", "Minimum severity to display")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *WatchOptions) error {
	threshold, ok := diag.ParseSeverity(opts.Severity)
	if !ok {
		return fmt.Errorf("unknown severity %q", opts.Severity)
	}
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	targets := cc.Targets(args)

	check := func() {
		err := checkTargets(ctx, cc, targets, threshold, false)
		if err != nil && !errors.Is(err, ErrFailed) && ctx.Err() == nil {
			cc.Renderer.Error(err.Error())
		}
	}
	check()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range watchDirs(targets) {
		if err := addWatchDir(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	cc.Renderer.Muted("watching " + strings.Join(targets, ", ") + " (Ctrl+C to stop)")

	return watchLoop(ctx, watcher, opts.Debounce, cc.Logger, func(changed []string) {
		cc.Renderer.Println("")
		cc.Renderer.Muted("changed: " + strings.Join(changed, ", "))
		check()
	})
}

// watchDirs returns the directories to watch for targets: directories
// themselves and the parents of files.
func watchDirs(targets []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, t := range targets {
		dir := t
		if info, err := os.Stat(t); err == nil && !info.IsDir() {
			dir = filepath.Dir(t)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// addWatchDir recursively adds a directory to the watcher, skipping hidden
// directories.
func addWatchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchLoop calls onChange with the sorted set of changed sources once no
// event has arrived for delay. It returns when ctx is done or the watcher
// is closed.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, delay time.Duration, logger *slog.Logger, onChange func(changed []string)) error {
	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchDir(watcher, event.Name); err != nil {
						logger.Warn("failed to watch directory", slog.String("dir", event.Name), slog.Any("error", err))
					}
					continue
				}
			}
			if filepath.Ext(event.Name) != driver.Extension || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("source changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			pending[event.Name] = true
			timer.Reset(delay)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}
