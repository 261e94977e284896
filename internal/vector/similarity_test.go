package vector

import (
	"math"
	"testing"
)

func TestInnerProduct(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"unit identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{0, 1}, []float32{0, -1}, -1},
		{"dimension mismatch", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		if got := InnerProduct(tt.a, tt.b); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("%s: InnerProduct = %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if math.Abs(L2Norm(v)-1) > 1e-6 {
		t.Errorf("norm = %f", L2Norm(v))
	}
	z := Normalize([]float32{0, 0})
	if z[0] != 0 || z[1] != 0 {
		t.Errorf("zero vector changed: %v", z)
	}
}

func TestEncodeDecodeEmbedding(t *testing.T) {
	in := []float32{0.5, -1.25, 3}
	out, err := DecodeEmbedding(EncodeEmbedding(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("out = %v, want %v", out, in)
		}
	}
	if _, err := DecodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
