package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_DeterministicUnitVectors(t *testing.T) {
	e := NewMockEmbedder(32)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "loans")
	b, _ := e.Embed(ctx, "loans")
	c, _ := e.Embed(ctx, "complaints")
	var norm float64
	same, diff := true, false
	for i := range a {
		norm += float64(a[i] * a[i])
		if a[i] != b[i] {
			same = false
		}
		if a[i] != c[i] {
			diff = true
		}
	}
	if !same {
		t.Error("same text should embed identically")
	}
	if !diff {
		t.Error("different texts should embed differently")
	}
	if math.Abs(norm-1) > 1e-4 {
		t.Errorf("norm = %f, want 1", norm)
	}
	if e.Embedded() != 3 {
		t.Errorf("Embedded = %d, want 3", e.Embedded())
	}
}

func TestMockEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockEmbedder(4).Embed(ctx, "x"); err == nil {
		t.Error("expected error on cancelled context")
	}
}
