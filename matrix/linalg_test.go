package matrix

import "testing"

func almostEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestIdentityTransposeMultiply(t *testing.T) {
	id := Identity(3)
	m := New[float64](3, 3)
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, vals[i*3+j])
		}
	}
	got := Multiply(m, id)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !almostEqual(got.At(i, j), m.At(i, j), 1e-9) {
				t.Fatalf("m*I[%d][%d] = %v, want %v", i, j, got.At(i, j), m.At(i, j))
			}
		}
	}
	tr := Transpose(m)
	if tr.At(0, 2) != m.At(2, 0) {
		t.Fatalf("Transpose mismatch: tr[0][2]=%v, m[2][0]=%v", tr.At(0, 2), m.At(2, 0))
	}
}

func TestCholeskyInverseRecoversIdentity(t *testing.T) {
	// A simple 2x2 SPD covariance matrix.
	m := New[float64](2, 2)
	m.Set(0, 0, 4)
	m.Set(0, 1, 1)
	m.Set(1, 0, 1)
	m.Set(1, 1, 3)

	inv := CholeskyInverse(m)
	product := Multiply(m, inv)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if !almostEqual(product.At(i, j), want, 1e-6) {
				t.Fatalf("m*CholeskyInverse(m)[%d][%d] = %v, want %v", i, j, product.At(i, j), want)
			}
		}
	}
}

func TestInverseRecoversIdentity(t *testing.T) {
	m := New[float64](2, 2)
	m.Set(0, 0, 2)
	m.Set(0, 1, 0)
	m.Set(1, 0, 0)
	m.Set(1, 1, 4)

	inv := Inverse(m)
	product := Multiply(m, inv)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if !almostEqual(product.At(i, j), want, 1e-9) {
				t.Fatalf("m*Inverse(m)[%d][%d] = %v, want %v", i, j, product.At(i, j), want)
			}
		}
	}
}
