package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/torstats/torstats/pkg/types"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func summary(n int) *types.Summary {
	return &types.Summary{
		GeneratedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Churn:       types.ChurnSummary{Snapshots: n, UniqueNodes: 10 * n},
	}
}

func writeSummary(t *testing.T, dir string, s *types.Summary, mod time.Time) {
	t.Helper()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestPutAndGet(t *testing.T) {
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	st := New(t.TempDir())
	st.now = fixedClock(now)

	if _, ok := st.Get(); ok {
		t.Fatal("Get on empty store: expected false")
	}
	st.Put(summary(3))

	e, ok := st.Get()
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Summary.Churn.Snapshots != 3 || !e.LoadedAt.Equal(now) {
		t.Errorf("entry: %+v", e)
	}
}

func TestPut_NotifiesSubscribers(t *testing.T) {
	st := New(t.TempDir())
	var got []int
	st.OnUpdate(func(e *Entry) { got = append(got, e.Summary.Churn.Snapshots) })
	st.Put(summary(1))
	st.Put(summary(2))

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("subscriber saw %v, want [1 2]", got)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	changed, err := st.Reload()
	if err != nil || changed {
		t.Fatalf("Reload without file: changed=%v err=%v", changed, err)
	}

	mod := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeSummary(t, dir, summary(3), mod)
	if changed, err := st.Reload(); err != nil || !changed {
		t.Fatalf("first Reload: changed=%v err=%v", changed, err)
	}
	if changed, err := st.Reload(); err != nil || changed {
		t.Errorf("Reload of unchanged file: changed=%v err=%v", changed, err)
	}

	writeSummary(t, dir, summary(4), mod.Add(time.Minute))
	if changed, err := st.Reload(); err != nil || !changed {
		t.Fatalf("Reload after update: changed=%v err=%v", changed, err)
	}
	e, _ := st.Get()
	if e.Summary.Churn.Snapshots != 4 {
		t.Errorf("snapshots: got %d, want 4", e.Summary.Churn.Snapshots)
	}
}

func TestReload_CorruptKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	st.Put(summary(3))

	if err := os.WriteFile(filepath.Join(dir, SummaryFile), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Reload(); err == nil {
		t.Error("expected decode error")
	}
	e, ok := st.Get()
	if !ok || e.Summary.Churn.Snapshots != 3 {
		t.Errorf("previous summary lost: %+v", e)
	}
}

func TestRun_PicksUpNewSummary(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	updated := make(chan int, 8)
	st.OnUpdate(func(e *Entry) {
		select {
		case updated <- e.Summary.Churn.Snapshots:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		st.Run(ctx, 50*time.Millisecond)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	writeSummary(t, dir, summary(5), time.Now())

	select {
	case n := <-updated:
		if n != 5 {
			t.Errorf("snapshots: got %d, want 5", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("summary not picked up")
	}

	cancel()
	<-done
}

func TestWatch_SurvivesWatcherErrors(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	updated := make(chan int, 8)
	st.OnUpdate(func(e *Entry) { updated <- e.Summary.Churn.Snapshots })

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		st.watch(ctx, events, errs, nil)
		close(done)
	}()

	errs <- errors.New("queue overflow")
	close(errs)

	writeSummary(t, dir, summary(4), time.Now())
	events <- fsnotify.Event{Name: filepath.Join(dir, SummaryFile), Op: fsnotify.Write}

	select {
	case n := <-updated:
		if n != 4 {
			t.Errorf("snapshots: got %d, want 4", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("summary not reloaded after watcher error")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestConcurrentPutGet(t *testing.T) {
	st := New(t.TempDir())
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			st.Put(summary(n))
		}(i)
		go func() {
			defer wg.Done()
			st.Get()
		}()
	}
	wg.Wait()

	if _, ok := st.Get(); !ok {
		t.Error("expected an entry after concurrent puts")
	}
}
