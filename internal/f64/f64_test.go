package f64

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	x := []float64{1, 3, 0, 4}
	if !Normalize(x) {
		t.Fatal("expected normalization to succeed")
	}

	expected := []float64{0.125, 0.375, 0, 0.5}
	for i := range x {
		if math.Abs(x[i]-expected[i]) > 1e-12 {
			t.Errorf("x[%d]: expected %v, got %v", i, expected[i], x[i])
		}
	}

	zeros := []float64{0, 0}
	if Normalize(zeros) {
		t.Errorf("normalizing zero vector should fail")
	}
}

func TestUniform(t *testing.T) {
	x := make([]float64, 3)
	Uniform(x)
	if math.Abs(Sum(x)-1.0) > 1e-12 {
		t.Errorf("uniform vector sums to %v", Sum(x))
	}
}

func TestDot(t *testing.T) {
	if d := Dot([]float64{1, 2, 3}, []float64{4, 5, 6}); d != 32 {
		t.Errorf("expected 32, got %v", d)
	}
}

func TestAxpy(t *testing.T) {
	y := []float64{1, 1, 1}
	Axpy(0.5, []float64{2, 4, 6}, y)
	expected := []float64{2, 3, 4}
	for i := range y {
		if y[i] != expected[i] {
			t.Errorf("y[%d]: expected %v, got %v", i, expected[i], y[i])
		}
	}
}
