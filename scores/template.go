package scores

import (
	"math"
	"sort"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/matrix"
	"github.com/newae-go/metrisca/models"
	"github.com/newae-go/metrisca/numerics"
)

func init() {
	metrisca.Register(metrisca.PluginScore, "template", func() metrisca.Plugin { return &Template{} })
	metrisca.Register(metrisca.PluginScore, "template-legacy", func() metrisca.Plugin { return &Template{legacy: true} })
}

// degenerateEps is the threshold used both to drop near-zero-variance POIs
// and to drop POIs that are near-duplicates of an already retained column.
const degenerateEps = 1e-9

// Template is the Bayesian template attack score engine of spec.md §4.7.
// With legacy set it reproduces the legacy variant: POIs chosen by maximum
// pairwise class-mean gap under the model's expected byte value instead of
// by Pearson correlation against the known key.
type Template struct {
	profiling *dataset.Dataset
	attacking *dataset.Dataset
	modelName string
	poiCount  int
	traceMax  uint32
	step      uint32
	numBytes  int
	legacy    bool
}

func (t *Template) Type() metrisca.PluginType { return metrisca.PluginScore }

func (t *Template) Init(args *metrisca.ArgumentList) error {
	pd, ok := args.GetDataset(metrisca.ArgTrainingDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "template score requires %q", metrisca.ArgTrainingDataset)
	}
	profiling, ok := pd.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgTrainingDataset)
	}
	ad, ok := args.GetDataset(metrisca.ArgTestingDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "template score requires %q", metrisca.ArgTestingDataset)
	}
	attacking, ok := ad.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgTestingDataset)
	}
	if profiling.Header().Algorithm != attacking.Header().Algorithm || profiling.Header().PlaintextSize != attacking.Header().PlaintextSize {
		return metrisca.Errorf(metrisca.InvalidArgument, "profiling and attack datasets must share the same algorithm and plaintext shape")
	}

	modelName, ok := args.GetString(metrisca.ArgModel)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "template score requires %q", metrisca.ArgModel)
	}
	poiCount, ok := args.GetUint32(metrisca.ArgPoiCount)
	if !ok || poiCount == 0 {
		return metrisca.Errorf(metrisca.MissingArgument, "template score requires a positive %q", metrisca.ArgPoiCount)
	}
	traceMax, ok := args.GetUint32(metrisca.ArgTraceCount)
	if !ok {
		traceMax = attacking.NumTraces()
	}
	step, _ := args.GetUint32(metrisca.ArgTraceStep)

	t.profiling = profiling
	t.attacking = attacking
	t.modelName = modelName
	t.poiCount = int(poiCount)
	t.traceMax = traceMax
	t.step = step
	t.numBytes = int(profiling.Header().PlaintextSize)
	return nil
}

func (t *Template) modelMatrix(ds *dataset.Dataset, byteIndex int) (*matrix.Matrix[int32], error) {
	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	args.SetUint32(metrisca.ArgByteIndex, uint32(byteIndex))
	plugin, err := metrisca.Construct(metrisca.PluginPowerModel, t.modelName, args)
	if err != nil {
		return nil, err
	}
	return plugin.(models.Model).Compute()
}

// poiByCorrelation selects the m samples whose profiling-trace values
// correlate most with the model's prediction under the true key, sorted
// by descending raw correlation — the non-legacy selector.
func poiByCorrelation(ds *dataset.Dataset, modelMatrix *matrix.Matrix[int32], trueKey byte, m int) []int {
	numTraces := int(ds.NumTraces())
	numSamples := int(ds.NumSamples())
	predicted := make([]int32, numTraces)
	copy(predicted, modelMatrix.Row(int(trueKey))[:numTraces])

	samples := make([]int, numSamples)
	rhos := make([]float64, numSamples)
	for s := 0; s < numSamples; s++ {
		samples[s] = s
		rhos[s] = numerics.Pearson[int32, int32](predicted, ds.Sample(s)[:numTraces])
	}
	sort.Slice(samples, func(i, j int) bool { return rhos[samples[i]] > rhos[samples[j]] })
	if m > numSamples {
		m = numSamples
	}
	return samples[:m]
}

// poiByClassGap selects the m samples with the largest gap between the
// min and max per-class mean, classes being the model's expected byte
// value under the true key — the legacy selector.
func poiByClassGap(ds *dataset.Dataset, modelMatrix *matrix.Matrix[int32], trueKey byte, m int) []int {
	numTraces := int(ds.NumTraces())
	numSamples := int(ds.NumSamples())
	classOf := make([]int32, numTraces)
	copy(classOf, modelMatrix.Row(int(trueKey))[:numTraces])

	samples := make([]int, numSamples)
	gaps := make([]float64, numSamples)
	for s := 0; s < numSamples; s++ {
		samples[s] = s
		sampleRow := ds.Sample(s)
		buckets := make(map[int32][]int32)
		for t := 0; t < numTraces; t++ {
			c := classOf[t]
			buckets[c] = append(buckets[c], sampleRow[t])
		}
		minMean, maxMean := math.Inf(1), math.Inf(-1)
		for _, bucket := range buckets {
			mean := numerics.Mean(bucket)
			if mean < minMean {
				minMean = mean
			}
			if mean > maxMean {
				maxMean = mean
			}
		}
		gaps[s] = maxMean - minMean
	}
	sort.Slice(samples, func(i, j int) bool { return gaps[samples[i]] > gaps[samples[j]] })
	if m > numSamples {
		m = numSamples
	}
	return samples[:m]
}
