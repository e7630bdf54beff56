package numerics

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestMeanVariance(t *testing.T) {
	xs := []int32{1, 2, 3, 4, 5}
	mean := Mean(xs)
	if !almostEqual(mean, 3.0, 1e-9) {
		t.Fatalf("Mean = %v, want 3.0", mean)
	}
	variance := Variance(xs, mean)
	if !almostEqual(variance, 2.0, 1e-9) {
		t.Fatalf("Variance = %v, want 2.0", variance)
	}
}

func TestVarianceConstant(t *testing.T) {
	xs := []float64{7, 7, 7, 7}
	mean := Mean(xs)
	if Variance(xs, mean) != 0 {
		t.Fatalf("Variance of constant vector should be exactly 0")
	}
}

func TestPearsonPerfectCorrelation(t *testing.T) {
	xs := []int32{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10}
	p := Pearson[int32, float64](xs, ys)
	if !almostEqual(p, 1.0, 1e-9) {
		t.Fatalf("Pearson = %v, want 1.0", p)
	}
}

func TestPearsonAntiCorrelation(t *testing.T) {
	xs := []int32{1, 2, 3, 4, 5}
	ys := []float64{10, 8, 6, 4, 2}
	p := Pearson[int32, float64](xs, ys)
	if !almostEqual(p, -1.0, 1e-9) {
		t.Fatalf("Pearson = %v, want -1.0", p)
	}
}

func TestPearsonDegenerateIsNaN(t *testing.T) {
	xs := []int32{1, 2, 3}
	ys := []float64{5, 5, 5}
	p := Pearson[int32, float64](xs, ys)
	if !math.IsNaN(p) {
		t.Fatalf("Pearson against a constant vector should be NaN, got %v", p)
	}
}

func TestWelchTTestIdenticalSamples(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{1, 2, 3, 4, 5}
	tt := WelchTTest(xs, ys)
	if !almostEqual(tt, 0, 1e-9) {
		t.Fatalf("WelchTTest of identical samples = %v, want 0", tt)
	}
}

func TestSimpsonGaussianPartialArea(t *testing.T) {
	samples, delta := SampleGaussian(0, 1, -1, 1, 101)
	if len(samples)%2 != 1 {
		t.Fatalf("SampleGaussian must round up to an odd sample count")
	}
	area := Simpson(samples, delta)
	if area <= 0 || area > 1 {
		t.Fatalf("unreasonable Gaussian partial-area integral: %v", area)
	}
}

func TestARangeSwapsReversedEndpoints(t *testing.T) {
	a := ARange(0, 1, 0.25)
	b := ARange(1, 0, 0.25)
	if len(a) != len(b) {
		t.Fatalf("ARange(0,1,.25) and ARange(1,0,.25) should match, got %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("ARange endpoint swap mismatch at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestArgMinArgMaxTiesFirstIndex(t *testing.T) {
	xs := []int32{3, 1, 1, 3}
	if got := ArgMin(xs); got != 1 {
		t.Fatalf("ArgMin = %d, want 1", got)
	}
	if got := ArgMax(xs); got != 0 {
		t.Fatalf("ArgMax = %d, want 0", got)
	}
}

func TestMinMax(t *testing.T) {
	xs := []int32{3, -1, 7, 2}
	min, max := MinMax(xs)
	if min != -1 || max != 7 {
		t.Fatalf("MinMax = (%d, %d), want (-1, 7)", min, max)
	}
}

func TestSum(t *testing.T) {
	xs := []float64{1.5, 2.5, 3}
	if got := Sum(xs); !almostEqual(got, 7, 1e-9) {
		t.Fatalf("Sum = %v, want 7", got)
	}
}

func TestConvolveLength(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{0, 1}
	out := Convolve(a, b)
	if len(out) != len(a)+len(b)-1 {
		t.Fatalf("Convolve length = %d, want %d", len(out), len(a)+len(b)-1)
	}
	want := []float64{0, 1, 2, 3}
	for i := range want {
		if !almostEqual(out[i], want[i], 1e-9) {
			t.Fatalf("Convolve[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}
