package archive

import (
	"context"
	"testing"
	"time"

	"github.com/torstats/torstats/pkg/types"
)

func TestWatch_NewSnapshotTriggersChange(t *testing.T) {
	root := t.TempDir()
	writeList(t, root, "2024-01-01", types.RoleRelay, "a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, root, 50*time.Millisecond, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register the tree.
	time.Sleep(200 * time.Millisecond)
	writeList(t, root, "2024-01-02", types.RoleRelay, "b")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange not called after a new snapshot was written")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v, want nil on cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestIsInputPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/h/2024/01/2024-01-02/relay-nodes.txt", true},
		{"/h/2024/01/2024-01-02/guard-nodes.txt", true},
		{"/h/2024/01/2024-01-02", true},
		{"/h/2024/01/2024-01-02/geolocation-map.png", false},
		{"/h/2024/01/2024-01-02/.relay-nodes.txt.swp", false},
		{"/h/2024/01/notes", false},
		{"/a/active/geo-location.json", true},
		{"/a/active/.geo-location.json.tmp", false},
	}
	for _, tc := range tests {
		if got := isInputPath(tc.path); got != tc.want {
			t.Errorf("isInputPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
