package matrix

import "math"

// Identity returns the n x n identity matrix, grounded on
// Matrix<T>::SquareIdentity.
func Identity(n int) *Matrix[float64] {
	m := New[float64](n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1.0)
	}
	return m
}

// Transpose returns a new matrix that is the transpose of m.
func Transpose(m *Matrix[float64]) *Matrix[float64] {
	out := New[float64](m.Height(), m.Width())
	for i := 0; i < out.Height(); i++ {
		for j := 0; j < out.Width(); j++ {
			out.Set(i, j, m.At(j, i))
		}
	}
	return out
}

// Multiply computes lhs x rhs in O(n^3), panicking if the inner dimensions
// disagree (lhs.Width() must equal rhs.Height()).
func Multiply(lhs, rhs *Matrix[float64]) *Matrix[float64] {
	if lhs.Width() != rhs.Height() {
		panic("matrix: inner dimensions do not match in Multiply")
	}
	out := New[float64](rhs.Width(), lhs.Height())
	for i := 0; i < out.Height(); i++ {
		for j := 0; j < out.Width(); j++ {
			var sum float64
			for k := 0; k < lhs.Width(); k++ {
				sum += lhs.At(i, k) * rhs.At(k, j)
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// CholeskyDecompose computes the lower-triangular L such that L.Lt == m.
// m must be square symmetric positive-definite; the result contains NaN
// where that assumption fails (sqrt of a negative number), matching the
// original's unchecked arithmetic — callers must guard, per spec.md §4.2.
func CholeskyDecompose(m *Matrix[float64]) *Matrix[float64] {
	n := m.Width()
	L := New[float64](n, n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			var sum float64
			for k := 0; k < j; k++ {
				sum += L.At(i, k) * L.At(j, k)
			}
			if i == j {
				L.Set(i, j, math.Sqrt(m.At(i, i)-sum))
			} else {
				L.Set(i, j, (m.At(i, j)-sum)/L.At(j, j))
			}
		}
	}
	return L
}

// CholeskyInverse computes m^-1 via Cholesky decomposition, forward-solving
// L.Y = I column by column in place, then returning Yt.Y. Preferred over
// Inverse for SPD covariance matrices (§4.2, §4.7).
func CholeskyInverse(m *Matrix[float64]) *Matrix[float64] {
	n := m.Width()
	L := CholeskyDecompose(m)
	Linv := Identity(n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			Linv.Set(i, j, Linv.At(i, j)/L.At(i, i))
		}
		L.Set(i, i, 1.0)

		for l := i + 1; l < n; l++ {
			factor := L.At(l, i)
			for k := 0; k < n; k++ {
				Linv.Set(l, k, Linv.At(l, k)-Linv.At(i, k)*factor)
			}
		}
	}

	return Multiply(Transpose(Linv), Linv)
}

// Inverse computes m^-1 via Gauss-Jordan elimination with row normalization
// and no pivoting; m must be well-conditioned (§4.2 deliberately reserves
// this path for the non-covariance case).
func Inverse(m *Matrix[float64]) *Matrix[float64] {
	n := m.Width()
	self := m.Copy()
	identity := Identity(n)

	for i := 0; i < n; i++ {
		factor := self.At(i, i)
		for j := i; j < n; j++ {
			self.Set(i, j, self.At(i, j)/factor)
		}
		for j := 0; j < n; j++ {
			identity.Set(i, j, identity.At(i, j)/factor)
		}

		for k := 0; k < n; k++ {
			if k == i {
				continue
			}
			f := self.At(k, i)
			for j := i; j < n; j++ {
				self.Set(k, j, self.At(k, j)-f*self.At(i, j))
			}
			for j := 0; j < n; j++ {
				identity.Set(k, j, identity.At(k, j)-f*identity.At(i, j))
			}
		}
	}

	return identity
}
