package metrics

import (
	"fmt"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/numerics"
)

func init() {
	metrisca.Register(metrisca.PluginMetric, "welch", func() metrisca.Plugin { return &Welch{} })
}

// Welch emits, for every step, trace_count plus the Welch t statistic at
// every sample in the configured window, comparing a fixed-plaintext and
// a random-plaintext dataset of identical shape, per spec.md §4.8.
type Welch struct {
	fixed, random          *dataset.Dataset
	sampleStart, sampleEnd int
	traceMax, step         int
}

func (w *Welch) Type() metrisca.PluginType { return metrisca.PluginMetric }

func (w *Welch) Init(args *metrisca.ArgumentList) error {
	fd, ok := args.GetDataset(metrisca.ArgFixedDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "welch metric requires %q", metrisca.ArgFixedDataset)
	}
	fixed, ok := fd.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgFixedDataset)
	}
	rd, ok := args.GetDataset(metrisca.ArgRandomDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "welch metric requires %q", metrisca.ArgRandomDataset)
	}
	random, ok := rd.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgRandomDataset)
	}
	if fixed.NumSamples() != random.NumSamples() {
		return metrisca.Errorf(metrisca.InvalidArgument, "welch metric requires datasets with matching sample counts, got %d and %d", fixed.NumSamples(), random.NumSamples())
	}

	sampleStart, ok := args.GetUint32(metrisca.ArgSampleStart)
	if !ok {
		sampleStart = 0
	}
	sampleEnd, ok := args.GetUint32(metrisca.ArgSampleEnd)
	if !ok {
		sampleEnd = fixed.NumSamples()
	}
	if sampleStart >= sampleEnd || sampleEnd > fixed.NumSamples() {
		return metrisca.Errorf(metrisca.InvalidArgument, "invalid sample window [%d, %d) for %d samples", sampleStart, sampleEnd, fixed.NumSamples())
	}

	traceMax, ok := args.GetUint32(metrisca.ArgTraceCount)
	if !ok {
		traceMax = fixed.NumTraces()
		if random.NumTraces() < traceMax {
			traceMax = random.NumTraces()
		}
	}
	if int(traceMax) > int(fixed.NumTraces()) || int(traceMax) > int(random.NumTraces()) {
		return metrisca.Errorf(metrisca.InvalidArgument, "requested trace count %d exceeds a dataset's size", traceMax)
	}
	step, _ := args.GetUint32(metrisca.ArgTraceStep)

	w.fixed = fixed
	w.random = random
	w.sampleStart = int(sampleStart)
	w.sampleEnd = int(sampleEnd)
	w.traceMax = int(traceMax)
	w.step = int(step)
	return nil
}

func (w *Welch) Run(sink metrisca.RowSink) error {
	sink.WriteCell("trace_count")
	for s := w.sampleStart; s < w.sampleEnd; s++ {
		sink.WriteCell(fmt.Sprintf("sample_%d", s))
	}
	sink.EndRow()

	for _, tau := range schedule(w.traceMax, w.step) {
		sink.WriteCell(tau)
		for s := w.sampleStart; s < w.sampleEnd; s++ {
			t := numerics.WelchTTest(w.fixed.Sample(s)[:tau], w.random.Sample(s)[:tau])
			sink.WriteCell(t)
		}
		sink.EndRow()
	}
	return sink.Flush()
}
