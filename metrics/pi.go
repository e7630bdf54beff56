package metrics

import (
	"math"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/numerics"
	"github.com/newae-go/metrisca/profilers"
)

func init() {
	metrisca.Register(metrisca.PluginMetric, "pi", func() metrisca.Plugin { return &PI{} })
}

// PI is the perceived information metric of spec.md §4.8: a profile
// trained on one dataset is evaluated against held-out traces from
// another, at the sample the identity model under the known key
// correlates with most.
type PI struct {
	training, testing *dataset.Dataset
	byteIndex         int
	knownKey          byte
	profilerName      string
	profilerArgs      *metrisca.ArgumentList
}

func (p *PI) Type() metrisca.PluginType { return metrisca.PluginMetric }

func (p *PI) Init(args *metrisca.ArgumentList) error {
	td, ok := args.GetDataset(metrisca.ArgTrainingDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "PI metric requires %q", metrisca.ArgTrainingDataset)
	}
	training, ok := td.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgTrainingDataset)
	}
	xd, ok := args.GetDataset(metrisca.ArgTestingDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "PI metric requires %q", metrisca.ArgTestingDataset)
	}
	testing, ok := xd.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgTestingDataset)
	}
	if training.Header().Algorithm != dataset.AlgorithmSBox || testing.Header().Algorithm != dataset.AlgorithmSBox {
		return metrisca.Errorf(metrisca.UnsupportedOperation, "PI metric only supports the single-byte S-Box algorithm")
	}
	if training.NumSamples() != testing.NumSamples() {
		return metrisca.Errorf(metrisca.InvalidArgument, "PI metric requires datasets with matching sample counts, got %d and %d", training.NumSamples(), testing.NumSamples())
	}

	byteIndex, ok := args.GetUint32(metrisca.ArgByteIndex)
	if !ok {
		byteIndex = 0
	}
	if int(byteIndex) >= int(testing.Header().PlaintextSize) {
		return metrisca.Errorf(metrisca.InvalidArgument, "byte index %d out of range", byteIndex)
	}
	knownKey, ok := args.GetUint8(metrisca.ArgKnownKey)
	if !ok {
		knownKey = testing.Key()[byteIndex]
	}

	profilerName, ok := args.GetString(metrisca.ArgProfiler)
	if !ok {
		profilerName = "standard"
	}
	profilerArgs := metrisca.NewArgumentList()
	profilerArgs.SetDataset(metrisca.ArgDataset, training)
	profilerArgs.SetUint32(metrisca.ArgByteIndex, byteIndex)

	p.training = training
	p.testing = testing
	p.byteIndex = int(byteIndex)
	p.knownKey = knownKey
	p.profilerName = profilerName
	p.profilerArgs = profilerArgs
	return nil
}

func (p *PI) Run(sink metrisca.RowSink) error {
	plugin, err := metrisca.Construct(metrisca.PluginProfiler, p.profilerName, p.profilerArgs)
	if err != nil {
		return err
	}
	profiler, ok := plugin.(profilers.Profiler)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "plugin %q is not a profiler", p.profilerName)
	}
	profile, err := profiler.Compute()
	if err != nil {
		return err
	}

	// The profiler's own POI is selected against the training dataset;
	// PI instead needs the sample where the identity model correlates
	// best with the held-out testing traces themselves, per
	// pi_metric.cpp's PIMetric::Compute.
	numTesting := int(p.testing.NumTraces())
	testingLabels := make([]int32, numTesting)
	for t := 0; t < numTesting; t++ {
		pByte := p.testing.Plaintext(t)[p.byteIndex]
		testingLabels[t] = int32(crypto128.SBox[pByte^p.knownKey])
	}
	rhos := make([]float64, p.testing.NumSamples())
	for s := range rhos {
		rhos[s] = math.Abs(numerics.Pearson(testingLabels, p.testing.Sample(s)))
	}
	poi := numerics.ArgMax(rhos)

	type class struct {
		mean, std float64
	}
	classes := make(map[int32]class)
	var sigmaSum float64
	var sigmaCount int
	for k := 0; k < 256; k++ {
		std := profile.At(k, 1)
		if std <= 0 {
			continue
		}
		classes[int32(k)] = class{mean: profile.At(k, 0), std: std}
		sigmaSum += std
		sigmaCount++
	}

	sampleRow := p.testing.Sample(poi)

	sums := make(map[int32]float64)
	counts := make(map[int32]int)
	for t := 0; t < numTesting; t++ {
		label := testingLabels[t]
		_, ok := classes[label]
		if !ok {
			continue
		}
		x := float64(sampleRow[t])

		var sum float64
		var gk float64
		for j, c := range classes {
			g := numerics.Gaussian(x, c.mean, 1/c.std)
			sum += g
			if j == label {
				gk = g
			}
		}
		if gk <= 0 || sum <= 0 {
			continue
		}
		sums[label] += math.Log2(gk / sum)
		counts[label]++
	}

	var total float64
	for label := range classes {
		if counts[label] == 0 {
			continue
		}
		total += sums[label] / float64(counts[label])
	}

	pi := 8 + total/256
	avgSigma := 0.0
	if sigmaCount > 0 {
		avgSigma = sigmaSum / float64(sigmaCount)
	}

	sink.WriteCell("pi")
	sink.WriteCell("avg_sigma")
	sink.EndRow()
	sink.WriteCell(pi)
	sink.WriteCell(avgSigma)
	sink.EndRow()
	return sink.Flush()
}
