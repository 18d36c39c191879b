package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/torstats/torstats/pkg/types"
)

// SummaryFile is the file name the report writes into the stats directory.
const SummaryFile = "summary.json"

// Entry is a summary together with the time it was loaded.
type Entry struct {
	Summary  *types.Summary
	LoadedAt time.Time
	ModTime  time.Time
}

// Store is a thread-safe holder of the latest summary. Subscribers registered
// with OnUpdate are called after every successful reload.
type Store struct {
	mu      sync.RWMutex
	dir     string
	cur     *Entry
	subs    []func(*Entry)
	now     func() time.Time // injectable for deterministic tests
	modTime time.Time
}

// New creates a Store reading dir/summary.json.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir is the stats directory backing the store.
func (s *Store) Dir() string { return s.dir }

// Path is the summary file location.
func (s *Store) Path() string { return filepath.Join(s.dir, SummaryFile) }

// OnUpdate registers fn to be called with each new entry.
func (s *Store) OnUpdate(fn func(*Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Put replaces the current summary and notifies subscribers.
// Callers must not modify sum after calling Put.
func (s *Store) Put(sum *types.Summary) *Entry {
	s.mu.Lock()
	e := &Entry{Summary: sum, LoadedAt: s.now(), ModTime: s.modTime}
	s.cur = e
	subs := append([]func(*Entry){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
	return e
}

// Get returns the current entry and whether a summary has been loaded.
func (s *Store) Get() (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur, s.cur != nil
}

// Reload reads summary.json if its modification time changed since the last
// load. It reports whether a new summary was stored. A missing file is not
// an error.
func (s *Store) Reload() (bool, error) {
	path := s.Path()
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: stat %q: %w", path, err)
	}

	s.mu.RLock()
	unchanged := s.cur != nil && fi.ModTime().Equal(s.modTime)
	s.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("store: read %q: %w", path, err)
	}
	var sum types.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return false, fmt.Errorf("store: decode %q: %w", path, err)
	}

	s.mu.Lock()
	s.modTime = fi.ModTime()
	s.mu.Unlock()
	s.Put(&sum)
	return true, nil
}

// Run loads the summary, then reloads it whenever the stats directory
// reports a change to summary.json or every interval, whichever comes
// first. Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	s.reload()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if w, err := fsnotify.NewWatcher(); err != nil {
		slog.Warn("store: fsnotify unavailable, polling only", "err", err)
	} else {
		defer w.Close()
		if err := w.Add(s.dir); err != nil {
			slog.Warn("store: cannot watch stats dir, polling only", "dir", s.dir, "err", err)
		} else {
			events, errs = w.Events, w.Errors
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	s.watch(ctx, events, errs, t.C)
}

// watch reloads on summary.json events and ticks until ctx is cancelled.
// Watcher errors are logged and do not stop the loop; a closed channel
// leaves the remaining sources in place.
func (s *Store) watch(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// The report renames a temp file into place.
			if filepath.Base(ev.Name) == SummaryFile && (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
				s.reload()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("store: watcher error", "dir", s.dir, "err", err)
		case <-tick:
			s.reload()
		}
	}
}

func (s *Store) reload() {
	changed, err := s.Reload()
	if err != nil {
		slog.Error("store: reload failed, keeping previous summary", "err", err)
		return
	}
	if changed {
		e, _ := s.Get()
		slog.Info("store: summary loaded",
			"generated_at", e.Summary.GeneratedAt,
			"snapshots", e.Summary.Churn.Snapshots)
	}
}
