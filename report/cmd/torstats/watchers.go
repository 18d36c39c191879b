package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/torstats/torstats/report/internal/archive"
)

// archiveWatchers runs one archive watcher per input directory and restarts
// them when a reloaded config points somewhere else.
type archiveWatchers struct {
	watch   func(ctx context.Context, dir string, debounce time.Duration, onChange func()) error
	trigger func()

	mu       sync.Mutex
	dirs     []string
	debounce time.Duration
	cancel   context.CancelFunc
}

func newArchiveWatchers(trigger func()) *archiveWatchers {
	return &archiveWatchers{watch: archive.Watch, trigger: trigger}
}

// start watches dirs under ctx. Calling it again with the same dirs and
// debounce is a no-op; otherwise the previous watchers are stopped first.
func (w *archiveWatchers) start(ctx context.Context, debounce time.Duration, dirs ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil && debounce == w.debounce && equalDirs(dirs, w.dirs) {
		return nil
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("watch: create %q: %w", dir, err)
		}
	}
	if w.cancel != nil {
		slog.Info("archive watchers restarting", "old", w.dirs, "new", dirs)
		w.cancel()
	}

	wctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.dirs = append([]string(nil), dirs...)
	w.debounce = debounce
	for _, dir := range dirs {
		go func(dir string) {
			if err := w.watch(wctx, dir, debounce, w.trigger); err != nil {
				slog.Error("archive watcher stopped", "dir", dir, "err", err)
			}
		}(dir)
	}
	return nil
}

func (w *archiveWatchers) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func equalDirs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
