package vector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/sqlrag/internal/models"
)

func embeddedChunk(id, source string, index int, text string, vec ...float32) models.EmbeddedChunk {
	return models.EmbeddedChunk{
		Chunk:  models.Chunk{ID: id, Source: source, Index: index, Text: text},
		Vector: vec,
	}
}

func TestHasData_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	ok, err := HasData(dir)
	if err != nil || ok {
		t.Fatalf("HasData = %v, %v; want false, nil", ok, err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("HasData must not create the directory")
	}
}

func TestStore_UpsertAndAll(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := OpenStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if ok, _ := HasData(dir); ok {
		t.Error("HasData should be false for an empty store")
	}

	err = s.Upsert(ctx, []models.EmbeddedChunk{
		embeddedChunk("a", "a.txt", 0, "first", 1, 0),
		embeddedChunk("b", "a.txt", 1, "second", 0, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, []models.EmbeddedChunk{embeddedChunk("a", "a.txt", 0, "first v2", 0.5, 0.5)}); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all[0].ID != "a" || all[0].Text != "first v2" || all[0].Vector[0] != 0.5 {
		t.Errorf("replaced chunk = %+v", all[0])
	}
	if all[1].ID != "b" || all[1].Index != 1 {
		t.Errorf("second chunk = %+v", all[1])
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if ok, err := HasData(dir); err != nil || !ok {
		t.Errorf("HasData = %v, %v; want true", ok, err)
	}
}

func TestStore_MetaAndReset(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if v, err := s.Meta(ctx, MetaFingerprint); err != nil || v != "" {
		t.Fatalf("unset meta = %q, %v", v, err)
	}
	if err := s.SetMeta(ctx, MetaFingerprint, "abc"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMeta(ctx, MetaFingerprint, "def"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Meta(ctx, MetaFingerprint); v != "def" {
		t.Errorf("meta = %q, want def", v)
	}

	_ = s.Upsert(ctx, []models.EmbeddedChunk{embeddedChunk("a", "a.txt", 0, "x", 1)})
	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("count after reset = %d", n)
	}
	if v, _ := s.Meta(ctx, MetaFingerprint); v != "" {
		t.Errorf("meta after reset = %q", v)
	}
}
