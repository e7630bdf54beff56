package scores

import (
	"math"

	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/matrix"
)

// poiSelector is the shape of poiByCorrelation/poiByClassGap, chosen at
// Compute time depending on whether the engine runs in legacy mode.
type poiSelector func(ds *dataset.Dataset, modelMatrix *matrix.Matrix[int32], trueKey byte, m int) []int

// Compute runs the two-phase Bayesian template attack: profile each byte's
// POIs and per-sample bias against t.profiling, then score every key
// hypothesis at every schedule step against t.attacking.
func (t *Template) Compute() ([]Step, error) {
	var selector poiSelector = poiByCorrelation
	if t.legacy {
		selector = poiByClassGap
	}

	poiSets := make([][]int, t.numBytes)
	profilingModels := make([]*matrix.Matrix[int32], t.numBytes)
	attackModels := make([]*matrix.Matrix[int32], t.numBytes)

	for b := 0; b < t.numBytes; b++ {
		pm, err := t.modelMatrix(t.profiling, b)
		if err != nil {
			return nil, err
		}
		profilingModels[b] = pm
		trueKey := t.profiling.Key()[b]
		poiSets[b] = selector(t.profiling, pm, trueKey, t.poiCount)

		am, err := t.modelMatrix(t.attacking, b)
		if err != nil {
			return nil, err
		}
		attackModels[b] = am
	}

	bias := computeBias(t.profiling, profilingModels, poiSets)

	steps := schedule(int(t.traceMax), int(t.step))
	out := make([]Step, len(steps))
	for si, tau := range steps {
		scores := matrix.New[float64](256, t.numBytes)
		for b := 0; b < t.numBytes; b++ {
			poi := poiSets[b]
			for k := 0; k < 256; k++ {
				score := scoreKeyHypothesis(t.attacking, attackModels[b], poi, bias, k, tau)
				scores.Set(b, k, score)
			}
		}
		out[si] = Step{TraceCount: tau, Scores: scores}
	}
	return out, nil
}

// computeBias averages, per sample, the residual between the observed
// profiling value and the model's prediction under the true key, over
// every trace and every byte whose POI set includes that sample.
func computeBias(profiling *dataset.Dataset, profilingModels []*matrix.Matrix[int32], poiSets [][]int) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	numTraces := int(profiling.NumTraces())

	for b, poi := range poiSets {
		trueKey := profiling.Key()[b]
		predicted := profilingModels[b].Row(int(trueKey))
		for _, s := range poi {
			row := profiling.Sample(s)
			var sum float64
			for t := 0; t < numTraces; t++ {
				sum += float64(row[t]) - float64(predicted[t])
			}
			sums[s] += sum
			counts[s] += numTraces
		}
	}

	bias := make(map[int]float64, len(sums))
	for s, sum := range sums {
		bias[s] = sum / float64(counts[s])
	}
	return bias
}

// scoreKeyHypothesis builds the residual vector and covariance matrix over
// the first tau attack traces for key hypothesis k, drops degenerate/
// duplicate POIs, and returns -1/2 * rT * Sigma^-1 * r via Cholesky
// inversion.
func scoreKeyHypothesis(attacking *dataset.Dataset, modelMatrix *matrix.Matrix[int32], poi []int, bias map[int]float64, k, tau int) float64 {
	m := len(poi)
	if m == 0 || tau == 0 {
		return math.NaN()
	}
	predicted := modelMatrix.Row(k)

	// residuals[t][i] = observed - bias - predicted, for trace t and POI i.
	residuals := make([][]float64, tau)
	for t := 0; t < tau; t++ {
		residuals[t] = make([]float64, m)
		for i, s := range poi {
			observed := float64(attacking.Sample(s)[t])
			residuals[t][i] = observed - bias[s] - float64(predicted[t])
		}
	}

	mean := make([]float64, m)
	for _, r := range residuals {
		for i, v := range r {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(tau)
	}

	cov := matrix.New[float64](m, m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			var sum float64
			for _, r := range residuals {
				sum += (r[i] - mean[i]) * (r[j] - mean[j])
			}
			cov.Set(i, j, sum/float64(tau))
		}
	}

	retained := filterDegenerateIndices(cov, degenerateEps)
	if len(retained) == 0 {
		return math.NaN()
	}

	reducedCov := matrix.New[float64](len(retained), len(retained))
	reducedMean := make([]float64, len(retained))
	for ri, i := range retained {
		reducedMean[ri] = mean[i]
		for rj, j := range retained {
			reducedCov.Set(ri, rj, cov.At(i, j))
		}
	}

	inv := matrix.CholeskyInverse(reducedCov)
	var quad float64
	for i := 0; i < len(retained); i++ {
		var rowSum float64
		for j := 0; j < len(retained); j++ {
			rowSum += inv.At(i, j) * reducedMean[j]
		}
		quad += reducedMean[i] * rowSum
	}
	return -0.5 * quad
}

// filterDegenerateIndices greedily keeps POI indices whose variance clears
// degenerateEps and whose correlation with every already-retained index
// stays below 1 - degenerateEps, preventing a rank-deficient covariance
// matrix per spec.md §4.7.
func filterDegenerateIndices(cov *matrix.Matrix[float64], eps float64) []int {
	n := cov.Width()
	var retained []int
	for i := 0; i < n; i++ {
		if cov.At(i, i) < eps {
			continue
		}
		duplicate := false
		for _, j := range retained {
			denom := math.Sqrt(cov.At(i, i) * cov.At(j, j))
			if denom == 0 {
				continue
			}
			corr := cov.At(i, j) / denom
			if math.Abs(corr) > 1-eps {
				duplicate = true
				break
			}
		}
		if !duplicate {
			retained = append(retained, i)
		}
	}
	return retained
}
