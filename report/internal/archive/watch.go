package archive

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/torstats/torstats/pkg/types"
)

// DefaultDebounce is how long Watch waits after the last event before calling
// onChange. Snapshot publishers write three files in quick succession.
const DefaultDebounce = 2 * time.Second

// Watch monitors root and every directory below it, calling onChange once
// the tree has been quiet for debounce. New directories (a new month or a new
// date) are added to the watch as they appear. Watch runs until ctx is
// cancelled.
//
// fsnotify is not recursive, so each directory is registered individually.
func Watch(ctx context.Context, root string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}
	slog.Info("archive: watching for changes", "root", root, "debounce", debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			isDir := false
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					isDir = true
					if err := addTree(watcher, event.Name); err != nil {
						slog.Warn("archive: cannot watch new directory", "path", event.Name, "err", err)
					}
				}
			}
			// Charts copied into the history tree must not retrigger a run.
			if !isDir && !isInputPath(event.Name) {
				continue
			}
			slog.Debug("archive: change", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("archive: watcher error", "err", err)
		}
	}
}

// isInputPath reports whether path names a role list, a date directory or a
// JSON side file such as the active geolocation list.
func isInputPath(path string) bool {
	base := filepath.Base(path)
	if filepath.Ext(base) == ".json" && !strings.HasPrefix(base, ".") {
		return true
	}
	for _, r := range types.Roles {
		if base == FileName(r) {
			return true
		}
	}
	_, ok := ParseDate(base)
	return ok
}

// addTree registers dir and all directories beneath it.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}
