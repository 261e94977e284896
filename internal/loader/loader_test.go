package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/sqlrag/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "beta")
	writeFile(t, filepath.Join(dir, "a.TXT"), "alpha")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sub, "c.txt"), "not loaded")

	docs, err := LoadDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2: %+v", len(docs), docs)
	}
	if docs[0].Source != filepath.Join(dir, "a.TXT") || docs[0].Content != "alpha" {
		t.Errorf("docs[0] = %+v", docs[0])
	}
	if docs[1].Source != filepath.Join(dir, "b.txt") || docs[1].Content != "beta" {
		t.Errorf("docs[1] = %+v", docs[1])
	}
}

func TestLoadDirectory_missing(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, models.ErrConfigurationMissing) {
		t.Errorf("err = %v, want ErrConfigurationMissing", err)
	}
}

func TestLoadDirectory_notADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, path, "x")
	_, err := LoadDirectory(path)
	if !errors.Is(err, models.ErrConfigurationMissing) {
		t.Errorf("err = %v, want ErrConfigurationMissing", err)
	}
}

func TestLoadDirectory_empty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.md"), "no txt here")
	_, err := LoadDirectory(dir)
	if !errors.Is(err, models.ErrNoDocumentsFound) {
		t.Errorf("err = %v, want ErrNoDocumentsFound", err)
	}
}

func TestLoadFile_decoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.txt")
	if err := os.WriteFile(path, []byte{0xEF, 0xBB, 0xBF, 'h', 'i', 0xFF}, 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Content != "hi\ufffd" {
		t.Errorf("content = %q, want %q", doc.Content, "hi\ufffd")
	}
}
