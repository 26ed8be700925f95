package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStartWatcherRequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Error("watcher started with no roots")
	}
}

func TestStartWatcherEmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "new-scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-evCh:
		if got != path {
			t.Errorf("event path = %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for a created candidate file")
	}
}

func TestStartWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.xyz"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-evCh:
		t.Errorf("unexpected event for unsupported extension: %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStartWatcherBurstDelivery(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, Debounce: time.Microsecond})
	if err != nil {
		t.Fatal(err)
	}

	const n = 200
	want := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("scan-%03d.txt", i))
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		want[path] = struct{}{}
	}

	got := make(map[string]struct{}, n)
	deadline := time.After(10 * time.Second)
	for len(got) < n {
		select {
		case p := <-evCh:
			if _, ok := want[p]; !ok {
				t.Fatalf("unexpected path %q", p)
			}
			got[p] = struct{}{}
		case <-deadline:
			t.Fatalf("received %d of %d events", len(got), n)
		}
	}
}

func TestStartWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	pre := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(pre, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-evCh:
		if got != pre {
			t.Errorf("initial scan path = %q, want %q", got, pre)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan emitted nothing")
	}
}
