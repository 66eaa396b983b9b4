package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := writeFile(path, "[]"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New(path, func(string) { calls.Add(1) }, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := writeFile(path, "[1]"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(400 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("onChange called %d times, want 1", got)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := writeFile(path, "[]"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New(path, func(string) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "other.json"), "{}"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("onChange called %d times for an unrelated file", got)
	}
}

func TestWatcher_SeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := writeFile(path, "[]"); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 4)
	w, err := New(path, func(p string) { changed <- p }, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, "catalog.json.tmp")
	if err := writeFile(tmp, "[2]"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != w.Path() {
			t.Errorf("onChange path = %q, want %q", got, w.Path())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported after rename")
	}
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := writeFile(path, "[]"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New(path, func(string) { calls.Add(1) }, WithDebounce(300*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(path, "[1]"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()
	time.Sleep(400 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("onChange ran %d times after Stop", got)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Error("expected error for empty path")
	}
	w, err := New(filepath.Join(t.TempDir(), "missing-dir", "catalog.json"), nil)
	if err != nil {
		t.Fatalf("New should not touch the filesystem: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected Start to fail for a missing directory")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
