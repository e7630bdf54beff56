package metrics

import (
	"math"

	"github.com/golang/glog"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/numerics"
	"github.com/newae-go/metrisca/profilers"
)

func init() {
	metrisca.Register(metrisca.PluginMetric, "mi", func() metrisca.Plugin { return &MI{} })
}

// MI is the mutual information metric of spec.md §4.8: it drives a
// profiler to get per-class (mean, std), then numerically integrates the
// per-class mixture entropy gap over a truncated Gaussian support.
//
// Bounds/sample-count open question, resolved here (recorded in
// DESIGN.md): any of the three integration arguments the caller supplies
// overrides only that one default; any left unset keeps the automatic
// [μ_min−4σ_min, μ_max+4σ_max]/"~100 samples in the narrowest class"
// derivation. Supplying any of the three logs a single warning, since the
// automatic derivation is what keeps narrow classes adequately sampled.
type MI struct {
	profilerName string
	profilerArgs *metrisca.ArgumentList
	lowerOverride, upperOverride *float64
	sampleCountOverride          *uint32
}

func (m *MI) Type() metrisca.PluginType { return metrisca.PluginMetric }

func (m *MI) Init(args *metrisca.ArgumentList) error {
	if _, ok := args.GetDataset(metrisca.ArgDataset); !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "MI metric requires %q", metrisca.ArgDataset)
	}
	profilerName, ok := args.GetString(metrisca.ArgProfiler)
	if !ok {
		profilerName = "standard"
	}
	m.profilerName = profilerName
	m.profilerArgs = args

	if v, ok := args.GetFloat64(metrisca.ArgIntegrationLowerBound); ok {
		m.lowerOverride = &v
	}
	if v, ok := args.GetFloat64(metrisca.ArgIntegrationUpperBound); ok {
		m.upperOverride = &v
	}
	if v, ok := args.GetUint32(metrisca.ArgIntegrationSampleCount); ok {
		m.sampleCountOverride = &v
	}
	if m.lowerOverride != nil || m.upperOverride != nil || m.sampleCountOverride != nil {
		glog.Warningf("MI metric: integration bounds/sample-count overridden; narrow classes may be under-sampled")
	}
	return nil
}

func (m *MI) Run(sink metrisca.RowSink) error {
	plugin, err := metrisca.Construct(metrisca.PluginProfiler, m.profilerName, m.profilerArgs)
	if err != nil {
		return err
	}
	profiler, ok := plugin.(profilers.Profiler)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "plugin %q is not a profiler", m.profilerName)
	}
	profile, err := profiler.Compute()
	if err != nil {
		return err
	}

	type class struct {
		mean, std float64
	}
	var classes []class
	minLo, maxHi := math.Inf(1), math.Inf(-1)
	minStd := math.Inf(1)
	for k := 0; k < 256; k++ {
		std := profile.At(k, 1)
		if std <= 0 {
			continue
		}
		mean := profile.At(k, 0)
		classes = append(classes, class{mean: mean, std: std})
		if lo := mean - 4*std; lo < minLo {
			minLo = lo
		}
		if hi := mean + 4*std; hi > maxHi {
			maxHi = hi
		}
		if std < minStd {
			minStd = std
		}
	}

	lower, upper := minLo, maxHi
	if m.lowerOverride != nil {
		lower = *m.lowerOverride
	}
	if m.upperOverride != nil {
		upper = *m.upperOverride
	}

	n := 99999
	if len(classes) > 0 && minStd > 0 {
		width := upper - lower
		delta := (8 * minStd) / 100
		if delta > 0 {
			n = int(width / delta)
		}
	}
	if m.sampleCountOverride != nil {
		n = int(*m.sampleCountOverride)
	}
	if n > 99999 {
		n = 99999
	}
	if n%2 == 0 {
		n++
	}
	if n < 3 {
		n = 3
	}

	delta := (upper - lower) / float64(n-1)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = lower + float64(i)*delta
	}

	termSeries := make([][]float64, len(classes))
	for ci := range classes {
		termSeries[ci] = make([]float64, n)
	}
	var sigmaSum float64
	for _, c := range classes {
		sigmaSum += c.std
	}

	invStds := make([]float64, len(classes))
	for ci, c := range classes {
		invStds[ci] = 1 / c.std
	}

	for xi, x := range xs {
		pdfs := make([]float64, len(classes))
		var sum float64
		for ci, c := range classes {
			pdfs[ci] = numerics.Gaussian(x, c.mean, invStds[ci])
			sum += pdfs[ci]
		}
		for ci, pdf := range pdfs {
			if pdf <= 0 || sum <= 0 {
				continue
			}
			termSeries[ci][xi] = pdf * math.Log2(pdf/sum)
		}
	}

	var total float64
	for ci := range classes {
		total += numerics.Simpson(termSeries[ci], delta)
	}

	mi := 8 + total/256
	avgSigma := 0.0
	if len(classes) > 0 {
		avgSigma = sigmaSum / float64(len(classes))
	}

	sink.WriteCell("mi")
	sink.WriteCell("avg_sigma")
	sink.EndRow()
	sink.WriteCell(mi)
	sink.WriteCell(avgSigma)
	sink.EndRow()
	return sink.Flush()
}
