package similarity

import (
	"math"
	"testing"
)

func TestCosine_Identity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}

	got := Cosine(v, v)
	if math.Abs(float64(got)-1.0) > 1e-6 {
		t.Errorf("Cosine(v, v) = %f, want 1.0", got)
	}
}

func TestCosine_Symmetry(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-4, 5, 0.5}

	if Cosine(a, b) != Cosine(b, a) {
		t.Errorf("Cosine(a, b) = %f, Cosine(b, a) = %f, want equal", Cosine(a, b), Cosine(b, a))
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	if got := Cosine(a, b); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("Cosine(orthogonal) = %f, want 0", got)
	}
}

func TestCosine_Opposite(t *testing.T) {
	a := []float32{2, -3}
	b := []float32{-2, 3}

	if got := Cosine(a, b); math.Abs(float64(got)+1.0) > 1e-6 {
		t.Errorf("Cosine(opposite) = %f, want -1.0", got)
	}
}

func TestCosine_ZeroNorm(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}

	if got := Cosine(a, b); got != 0 {
		t.Errorf("Cosine(zero, b) = %f, want 0", got)
	}
	if got := Cosine(b, a); got != 0 {
		t.Errorf("Cosine(b, zero) = %f, want 0", got)
	}
	if got := Cosine(a, a); got != 0 {
		t.Errorf("Cosine(zero, zero) = %f, want 0", got)
	}
}

func TestCosine_MismatchedLength(t *testing.T) {
	a := []float32{1, 2}
	b := []float32{1, 2, 3}

	if got := Cosine(a, b); got != 0 {
		t.Errorf("Cosine(mismatched) = %f, want 0", got)
	}
}

func TestCosine_NeverNaN(t *testing.T) {
	cases := [][2][]float32{
		{{}, {}},
		{{0}, {0}},
		{nil, nil},
		{{1}, nil},
	}

	for i, c := range cases {
		if got := Cosine(c[0], c[1]); math.IsNaN(float64(got)) {
			t.Errorf("case %d: Cosine returned NaN", i)
		}
	}
}
