// Package profilers implements the standard profiler of spec.md §4.6:
// from a known-key, fixed-key, single-byte-S-Box dataset, pick the sample
// of maximum |ρ| against the identity class label as the point of
// interest, then estimate per-class (mean, std) there. Grounded on
// metrisca/profilers/standard_profiler.hpp from the MetriSCA original and
// on the per-class bucketing idiom used throughout the teacher's
// cmd/ecdh_zero_point_template_attack.go.
package profilers

import (
	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/matrix"
	"github.com/newae-go/metrisca/numerics"
)

func init() {
	metrisca.Register(metrisca.PluginProfiler, "standard", func() metrisca.Plugin { return &Standard{} })
}

// Profile is a 256x2 double matrix: row k holds (mean, std) of the bucket
// of traces whose identity-model class label is k.
type Profile = *matrix.Matrix[float64]

// Profiler is the shared contract.
type Profiler interface {
	metrisca.Plugin
	Compute() (Profile, error)
	// POI returns the sample index selected during Compute; valid only
	// after Compute has run.
	POI() int
}

// Standard is the only supported profiler: known-key, fixed-key,
// single-byte S-Box.
type Standard struct {
	ds        *dataset.Dataset
	byteIndex int
	knownKey  byte
	poi       int
}

func (p *Standard) Type() metrisca.PluginType { return metrisca.PluginProfiler }

func (p *Standard) Init(args *metrisca.ArgumentList) error {
	d, ok := args.GetDataset(metrisca.ArgDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "profiler requires %q", metrisca.ArgDataset)
	}
	ds, ok := d.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgDataset)
	}
	if ds.Header().Algorithm != dataset.AlgorithmSBox {
		return metrisca.Errorf(metrisca.UnsupportedOperation, "standard profiler only supports the single-byte S-Box algorithm")
	}
	byteIndex, ok := args.GetUint32(metrisca.ArgByteIndex)
	if !ok {
		byteIndex = 0
	}
	if int(byteIndex) >= int(ds.Header().PlaintextSize) {
		return metrisca.Errorf(metrisca.InvalidArgument, "byte index %d out of range", byteIndex)
	}
	p.ds = ds
	p.byteIndex = int(byteIndex)
	p.knownKey = ds.Key()[byteIndex]
	return nil
}

// POI returns the point of interest selected by the most recent Compute.
func (p *Standard) POI() int { return p.poi }

// Compute implements spec.md §4.6's four-step algorithm.
func (p *Standard) Compute() (Profile, error) {
	numTraces := int(p.ds.NumTraces())
	numSamples := int(p.ds.NumSamples())

	labels := make([]int32, numTraces)
	for t := 0; t < numTraces; t++ {
		pByte := p.ds.Plaintext(t)[p.byteIndex]
		labels[t] = int32(crypto128.SBox[pByte^p.knownKey])
	}

	bestSample, bestRho := 0, -1.0
	for s := 0; s < numSamples; s++ {
		row := p.ds.Sample(s)[:numTraces]
		rho := numerics.Pearson[int32, int32](labels, row)
		if rho < 0 {
			rho = -rho
		}
		if rho > bestRho {
			bestRho, bestSample = rho, s
		}
	}
	p.poi = bestSample

	buckets := make([][]int32, 256)
	row := p.ds.Sample(bestSample)
	for t := 0; t < numTraces; t++ {
		k := labels[t]
		buckets[k] = append(buckets[k], row[t])
	}

	profile := matrix.New[float64](2, 256)
	for k := 0; k < 256; k++ {
		if len(buckets[k]) == 0 {
			continue
		}
		mean := numerics.Mean(buckets[k])
		std := numerics.Std(buckets[k], mean)
		profile.Set(k, 0, mean)
		profile.Set(k, 1, std)
	}
	return profile, nil
}
