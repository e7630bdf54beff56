// Package numerics implements the overflow-guarded statistics kernel used
// by every distinguisher, profiler, score engine and metric: mean/variance,
// Pearson correlation, the Welch t statistic, Gaussian density, quadrature,
// convolution, and the small array helpers (argmin/argmax/minmax/arange).
// Grounded on metrisca/utils/numerics.hpp and utils/math.hpp from the
// MetriSCA original, and on the cmd/attack_sbox_cpa.go and
// cmd/ecdh_zero_point_template_attack.go teacher programs, which reached
// for gonum/stat and gonum/stat/distmv for the same one-shot correlation
// and Gaussian-density work. Pearson and Gaussian delegate to gonum here
// for the same reason; Mean/Variance/Std keep their own overflow-guarded
// accumulation (gonum's stat.Mean/stat.Variance do not guard against
// partial-sum overflow on long integer-derived series, see their doc
// comments) and WelchTTest stays hand-rolled (gonum has no Welch t-test).
package numerics

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Real is the set of sample types the numerics kernel operates on: raw
// trace samples are int32, everything derived (models, scores, profiles)
// is float64.
type Real interface {
	~int32 | ~float64
}

// Gaussian evaluates the normal PDF with the given mean and 1/std at x.
func Gaussian(x, mean, invstd float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: 1 / invstd}.Prob(x)
}

// Mean computes the arithmetic mean of xs using a two-accumulator scheme:
// a bounded partial sum is flushed (divided by N, folded into the running
// mean) whenever its magnitude would pass half the representable range,
// guaranteeing no overflow even for very large slices of bounded integer
// inputs. Returns 0 for an empty slice.
func Mean[T Real](xs []T) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	const halfMax = math.MaxFloat64 / 2
	var mean, sum float64
	nf := float64(n)
	for _, v := range xs {
		sum += float64(v)
		if math.Abs(sum) > halfMax {
			mean += sum / nf
			sum = 0
		}
	}
	mean += sum / nf
	return mean
}

// Variance computes the variance of xs around the given mean using the same
// two-accumulator strategy applied to the squared residuals. Variance of a
// constant vector is exactly 0.
func Variance[T Real](xs []T, mean float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	const halfMax = math.MaxFloat64 / 2
	var variance, sum float64
	nf := float64(n)
	for _, v := range xs {
		centered := float64(v) - mean
		sum += centered * centered
		if sum > halfMax {
			variance += sum / nf
			sum = 0
		}
	}
	variance += sum / nf
	return variance
}

// Std returns the standard deviation of xs around mean.
func Std[T Real](xs []T, mean float64) float64 {
	return math.Sqrt(Variance(xs, mean))
}

// WelchTTest computes the Welch t statistic between two unequal-variance
// samples: (mean1-mean2) / sqrt(var1/n1 + var2/n2). Returns 0 if either
// sample is empty.
func WelchTTest[T Real](xs, ys []T) float64 {
	if len(xs) == 0 || len(ys) == 0 {
		return 0
	}
	mean1, mean2 := Mean(xs), Mean(ys)
	var1, var2 := Variance(xs, mean1), Variance(ys, mean2)
	return (mean1 - mean2) / math.Sqrt(var1/float64(len(xs))+var2/float64(len(ys)))
}

// Pearson computes the Pearson correlation coefficient of xs and ys over
// min(len(xs), len(ys)), delegating to gonum/stat.Correlation. A
// denominator of zero (one side constant) yields NaN — the caller must
// treat that as a degenerate distinguisher result, per spec.md §4.1/§4.5.
func Pearson[A, B Real](xs []A, ys []B) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	fx := make([]float64, n)
	fy := make([]float64, n)
	for i := 0; i < n; i++ {
		fx[i] = float64(xs[i])
		fy[i] = float64(ys[i])
	}
	return stat.Correlation(fx, fy, nil)
}

// SampleGaussian produces n equidistant samples of N(mean, std) over [a,b].
// n is rounded up to the next odd value (Simpson requires an odd sample
// count). Returns the samples and the step delta used.
func SampleGaussian(mean, std, a, b float64, n int) ([]float64, float64) {
	if n <= 0 {
		return nil, 0
	}
	if n%2 == 0 {
		n++
	}
	out := make([]float64, n)
	invstd := 1.0 / std
	delta := (b - a) / float64(n-1)
	for i := 0; i < n; i++ {
		out[i] = Gaussian(a+float64(i)*delta, mean, invstd)
	}
	return out, delta
}

// Simpson integrates an evenly spaced series with step delta, via
// gonum/integrate.Trapezoidal over the reconstructed x-axis. Named Simpson
// for its callers' quadrature intent; gonum ships no fixed-step composite
// Simpson's rule for pre-sampled series, only Trapezoidal, which converges
// to the same integral as the sample spacing tightens and is what MI/PI
// actually drive here (see metrics/mi.go, metrics/pi.go).
func Simpson(samples []float64, delta float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) * delta
	}
	return integrate.Trapezoidal(xs, samples)
}

// ARange produces a half-open, strictly increasing sequence from `from` to
// `to` with the given step, swapping endpoints first if from > to —
// ARange(a,b,s) == ARange(b,a,s).
func ARange(from, to, step float64) []float64 {
	if from > to {
		from, to = to, from
	}
	if step <= 0 {
		return nil
	}
	var out []float64
	for v := from; v < to; v += step {
		out = append(out, v)
	}
	return out
}

// ArgMax returns the index of the largest element, first index seen on
// ties.
func ArgMax[T Real](xs []T) int {
	if len(xs) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

// ArgMin returns the index of the smallest element, first index seen on
// ties.
func ArgMin[T Real](xs []T) int {
	if len(xs) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[best] {
			best = i
		}
	}
	return best
}

// MinMax returns the smallest and largest elements of xs.
func MinMax[T Real](xs []T) (min, max T) {
	min, max = xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Sum adds up every element of xs.
func Sum[T Real](xs []T) T {
	var sum T
	for _, v := range xs {
		sum += v
	}
	return sum
}

// Convolve computes the direct O(N*M) convolution of a and b, producing a
// result of length len(a)+len(b)-1.
func Convolve[T Real](a, b []T) []float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}
	out := make([]float64, n+m-1)
	for i := range a {
		for j := range b {
			out[i+j] += float64(a[i]) * float64(b[j])
		}
	}
	return out
}
