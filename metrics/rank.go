package metrics

import (
	"math"
	"sort"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/distinguishers"
)

// rankBase is shared by the four distinguisher-driven metrics: Score,
// Guess, GuessingEntropy, and SuccessRate. Each wraps a distinguisher
// plugin (named by ArgDistinguisher, defaulting to "pearson") and reduces
// its per-step 256×window |ρ| matrix to a 256-element score vector.
type rankBase struct {
	distinguisherName string
	distArgs          *metrisca.ArgumentList
	knownKey          byte
}

func (r *rankBase) init(args *metrisca.ArgumentList) error {
	d, ok := args.GetDataset(metrisca.ArgDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "metric requires %q", metrisca.ArgDataset)
	}
	ds, ok := d.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgDataset)
	}
	byteIndex, ok := args.GetUint32(metrisca.ArgByteIndex)
	if !ok {
		byteIndex = 0
	}
	if int(byteIndex) >= int(ds.Header().PlaintextSize) {
		return metrisca.Errorf(metrisca.InvalidArgument, "byte index %d out of range", byteIndex)
	}

	distName, ok := args.GetString(metrisca.ArgDistinguisher)
	if !ok {
		distName = "pearson"
	}
	knownKey, ok := args.GetUint8(metrisca.ArgKnownKey)
	if !ok {
		knownKey = ds.Key()[byteIndex]
	}

	r.distinguisherName = distName
	r.distArgs = args
	r.knownKey = knownKey
	return nil
}

func (r *rankBase) compute() ([]distinguishers.Step, error) {
	plugin, err := metrisca.Construct(metrisca.PluginDistinguisher, r.distinguisherName, r.distArgs)
	if err != nil {
		return nil, err
	}
	dist, ok := plugin.(distinguishers.Distinguisher)
	if !ok {
		return nil, metrisca.Errorf(metrisca.InvalidArgument, "plugin %q is not a distinguisher", r.distinguisherName)
	}
	return dist.Compute()
}

// reduceStep collapses a distinguisher step's 256×window matrix to the
// 256-element score_key_k = max|ρ| vector spec.md §4.8 defines for Score
// and Guess.
func reduceStep(step distinguishers.Step) [256]float64 {
	var out [256]float64
	for k := 0; k < 256; k++ {
		row := step.Values.Row(k)
		max := math.NaN()
		for _, v := range row {
			if math.IsNaN(max) || v > max {
				max = v
			}
		}
		out[k] = max
	}
	return out
}

// guessOrder sorts key indices by descending score, NaN scores placed
// last, ties broken by first-seen (ascending key index) — sort.SliceStable
// preserves the ascending seed order among equal Less results, so no
// explicit index tiebreaker is needed in the comparator.
func guessOrder(scores [256]float64) [256]int {
	idx := make([]int, 256)
	for k := range idx {
		idx[k] = k
	}
	sort.SliceStable(idx, func(i, j int) bool {
		si, sj := scores[idx[i]], scores[idx[j]]
		if math.IsNaN(si) {
			return false
		}
		if math.IsNaN(sj) {
			return true
		}
		return si > sj
	})
	var out [256]int
	copy(out[:], idx)
	return out
}

// rankOf returns the 1-based rank of knownKey under scores' descending
// (NaN-last, first-seen-tie) order.
func rankOf(scores [256]float64, knownKey byte) int {
	order := guessOrder(scores)
	for pos, k := range order {
		if k == int(knownKey) {
			return pos + 1
		}
	}
	return 256
}
