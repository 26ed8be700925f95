package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Fen1x123/medconsultant/internal/session"
	"github.com/Fen1x123/medconsultant/internal/timeline"
)

func newTestIngestor() (*FSIngestor, *session.Store) {
	store := session.NewStore(nil)
	return NewFSIngestor(store, timeline.NewInferencer(nil), nil), store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestPath(t *testing.T) {
	ing, store := newTestIngestor()
	dir := t.TempDir()
	path := writeFile(t, dir, "2024-05-10_mrt.txt", "clinical text")

	res, err := ing.IngestPath(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Name != "2024-05-10_mrt.txt" || res.Bytes != len("clinical text") {
		t.Errorf("result = %+v", res)
	}
	want := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	if !res.Date.Equal(want) {
		t.Errorf("date = %s, want filename-inferred %s", res.Date, want)
	}
	if store.Get("2024-05-10_mrt.txt") == nil {
		t.Error("file not in session store")
	}
}

func TestIngestPathRejectsUnsupported(t *testing.T) {
	ing, store := newTestIngestor()
	dir := t.TempDir()
	path := writeFile(t, dir, "archive.zip", "x")

	if _, err := ing.IngestPath(context.Background(), path); err == nil {
		t.Error("unsupported extension accepted")
	}
	if store.Len() != 0 {
		t.Error("rejected file landed in the store")
	}
}

func TestIngestDirectory(t *testing.T) {
	ing, store := newTestIngestor()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "one")
	writeFile(t, dir, "sub/b.pdf", "two")
	writeFile(t, dir, "ignore.zip", "skip")
	writeFile(t, dir, ".hidden/c.txt", "skip")

	results, stats, err := ing.IngestDirectory(context.Background(), dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 2 || stats.Succeeded != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(results) != 2 {
		t.Errorf("results = %d", len(results))
	}
	if store.Len() != 2 {
		t.Errorf("store files = %d, want 2", store.Len())
	}
	if store.Get(".hidden") != nil || store.Get("c.txt") != nil {
		t.Error("hidden directory was not skipped")
	}
}

func TestIngestDirectoryEmptyRoot(t *testing.T) {
	ing, _ := newTestIngestor()
	if _, _, err := ing.IngestDirectory(context.Background(), "  ", true); err == nil {
		t.Error("blank root accepted")
	}
}

func TestIngestDirectoryPerFileFailureContinues(t *testing.T) {
	ing, store := newTestIngestor()
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "fine")
	bad := writeFile(t, dir, "bad.txt", "unreadable")
	if err := os.Chmod(bad, 0o000); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(bad, 0o600) }()
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	_, stats, err := ing.IngestDirectory(context.Background(), dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if store.Get("good.txt") == nil {
		t.Error("healthy file skipped after a failing one")
	}
}
