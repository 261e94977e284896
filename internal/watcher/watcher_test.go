package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/sqlrag/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
	fired   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	w := NewWatcher(dir, []string{".txt"}, nil)
	err := w.Start(context.Background())
	if !errors.Is(err, models.ErrConfigurationMissing) {
		t.Fatalf("Start() err = %v, want ErrConfigurationMissing", err)
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Error("watcher must not create the documents directory")
	}
	if w.Directories() != nil {
		t.Errorf("Directories() = %v before a successful start", w.Directories())
	}
}

func TestWatcher_DebouncesIntoSingleBatch(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := NewWatcher(dir, []string{"TXT"}, rec.onChange, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	dirs := w.Directories()
	if len(dirs) != 1 || dirs[0] != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	for _, name := range []string{"loans.txt", "customers.txt", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	rec.wait(t)
	// Give a stray second batch a chance to show up.
	time.Sleep(300 * time.Millisecond)

	batches := rec.snapshot()
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1: %v", len(batches), batches)
	}
	want := []string{filepath.Join(dir, "customers.txt"), filepath.Join(dir, "loans.txt")}
	if len(batches[0]) != len(want) {
		t.Fatalf("batch = %v, want %v", batches[0], want)
	}
	for i := range want {
		if batches[0][i] != want[i] {
			t.Errorf("batch[%d] = %s, want %s", i, batches[0][i], want[i])
		}
	}
}

func TestWatcher_RemoveAndIgnoreSubdirectories(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "sla_rules.txt")
	if err := os.WriteFile(doc, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "archive")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	rec := newRecorder()
	w := NewWatcher(dir, []string{".txt"}, rec.onChange, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Nested files are outside the corpus.
	if err := os.WriteFile(filepath.Join(sub, "old.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(doc); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)

	batches := rec.snapshot()
	if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0] != doc {
		t.Errorf("batches = %v, want [[%s]]", batches, doc)
	}
}

func TestWatcher_StopDropsPending(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := NewWatcher(dir, nil, rec.onChange, WithDebounce(time.Second))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	w.Stop()
	w.Stop()

	time.Sleep(1200 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("expected no batches after Stop, got %v", got)
	}
	if w.Directories() != nil {
		t.Errorf("Directories() after Stop = %v", w.Directories())
	}
}

func TestWatcher_MatchExtension(t *testing.T) {
	w := NewWatcher("/docs", []string{"txt", " .TXT ", ""}, nil)
	cases := map[string]bool{
		"/docs/a.txt":  true,
		"/docs/A.TXT":  true,
		"/docs/a.md":   false,
		"/docs/README": false,
	}
	for path, want := range cases {
		if got := w.matchExtension(path); got != want {
			t.Errorf("matchExtension(%q) = %v, want %v", path, got, want)
		}
	}
	if all := NewWatcher("/docs", nil, nil); !all.matchExtension("/docs/anything.bin") {
		t.Error("empty extension list should match all files")
	}
}
