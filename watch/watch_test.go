//go:build linux

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchLifecycle(t *testing.T) {
	dir := t.TempDir()

	w := New(&Config{Dir: dir, Backlog: 16, Enumerate: false})

	done := make(chan struct{})
	out := make(chan Event, 16)
	go w.Run(done, out)
	defer close(done)

	// Give the inotify watch a moment to land before mutating the dir.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "blue")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("creating the namespace placeholder: %v", err)
	}

	select {
	case ev := <-out:
		if ev.Type != Added || ev.Name != "blue" {
			t.Errorf("got event %s/%q; want added/blue", ev.Type, ev.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the appearing namespace")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("removing the namespace placeholder: %v", err)
	}

	select {
	case ev := <-out:
		if ev.Type != Removed || ev.Name != "blue" {
			t.Errorf("got event %s/%q; want removed/blue", ev.Type, ev.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the vanishing namespace")
	}
}

func TestWatchMissingDir(t *testing.T) {
	w := New(&Config{Dir: filepath.Join(t.TempDir(), "nope"), Backlog: 1})

	done := make(chan struct{})
	defer close(done)

	out := make(chan Event)
	go w.Run(done, out)

	// An unwatchable directory closes the output instead of hanging.
	select {
	case _, ok := <-out:
		if ok {
			t.Error("got an event from an unwatchable directory")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the watcher hung on an unwatchable directory")
	}
}
