// Package distinguishers implements the Pearson CPA distinguisher of
// spec.md §4.5: step-indexed monotonically-advancing running sums over a
// sample window, producing a |ρ| matrix per step. Grounded on the
// correlation loop in cmd/attack_sbox_cpa.go (per-key, per-sample Pearson
// against a model) and on metrisca/distinguishers/pearson.hpp from the
// MetriSCA original for the monotonic accumulator scheme.
package distinguishers

import (
	"math"
	"sync"

	"github.com/golang/glog"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/matrix"
	"github.com/newae-go/metrisca/models"
)

func init() {
	metrisca.Register(metrisca.PluginDistinguisher, "pearson", func() metrisca.Plugin { return &Pearson{} })
}

// Step is one entry of a distinguisher's output: the trace count it was
// computed over, and the 256×window matrix of |ρ| at that count.
type Step struct {
	TraceCount int
	Values     *matrix.Matrix[float64] // width = window length, height = 256
}

// Distinguisher is the shared contract: run the full schedule against a
// dataset and model fixed at Init time.
type Distinguisher interface {
	metrisca.Plugin
	Compute() ([]Step, error)
}

// Pearson is the canonical CPA distinguisher.
type Pearson struct {
	ds          *dataset.Dataset
	model       models.Model
	sampleStart int
	sampleEnd   int
	traceMax    int
	step        int
}

func (p *Pearson) Type() metrisca.PluginType { return metrisca.PluginDistinguisher }

// Init wires (dataset, model, sample window, trace count, step) from the
// argument bag and constructs the model sub-plugin named by ArgModel.
// Refuses fixed-plaintext datasets: the modeled value under a fixed key is
// constant across traces, making Pearson's denominator ill-defined.
func (p *Pearson) Init(args *metrisca.ArgumentList) error {
	d, ok := args.GetDataset(metrisca.ArgDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "distinguisher requires %q", metrisca.ArgDataset)
	}
	ds, ok := d.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgDataset)
	}
	if ds.Header().PlaintextMode == dataset.PlaintextModeFixed {
		return metrisca.Errorf(metrisca.UnsupportedOperation, "Pearson CPA requires a non-fixed plaintext mode")
	}

	sampleStart, ok := args.GetUint32(metrisca.ArgSampleStart)
	if !ok {
		sampleStart = 0
	}
	sampleEnd, ok := args.GetUint32(metrisca.ArgSampleEnd)
	if !ok {
		sampleEnd = ds.NumSamples()
	}
	if sampleStart >= sampleEnd || sampleEnd > ds.NumSamples() {
		return metrisca.Errorf(metrisca.InvalidArgument, "invalid sample window [%d, %d) for %d samples", sampleStart, sampleEnd, ds.NumSamples())
	}
	traceMax, ok := args.GetUint32(metrisca.ArgTraceCount)
	if !ok {
		traceMax = ds.NumTraces()
	}
	if int(traceMax) > int(ds.NumTraces()) {
		return metrisca.Errorf(metrisca.InvalidArgument, "requested trace count %d exceeds dataset size %d", traceMax, ds.NumTraces())
	}
	step, _ := args.GetUint32(metrisca.ArgTraceStep)

	modelName, ok := args.GetString(metrisca.ArgModel)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "distinguisher requires %q", metrisca.ArgModel)
	}
	modelPlugin, err := metrisca.Construct(metrisca.PluginPowerModel, modelName, args)
	if err != nil {
		return err
	}
	model, ok := modelPlugin.(models.Model)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "plugin %q is not a power model", modelName)
	}

	p.ds = ds
	p.model = model
	p.sampleStart = int(sampleStart)
	p.sampleEnd = int(sampleEnd)
	p.traceMax = int(traceMax)
	p.step = int(step)
	return nil
}

// schedule returns the inclusive trace-count checkpoints to emit a step at:
// step, 2*step, ... <= traceMax if step > 0, followed by traceMax itself
// when it is not already the last multiple; else just {traceMax}.
func (p *Pearson) schedule() []int {
	if p.step <= 0 {
		return []int{p.traceMax}
	}
	var out []int
	for n := p.step; n <= p.traceMax; n += p.step {
		out = append(out, n)
	}
	if len(out) == 0 || out[len(out)-1] != p.traceMax {
		out = append(out, p.traceMax)
	}
	return out
}

var (
	warnedDegenerateOnce sync.Once
)

// Compute runs the full schedule, advancing five running sums per (key,
// sample) pair monotonically across steps rather than recomputing from
// scratch, per spec.md §4.5.
func (p *Pearson) Compute() ([]Step, error) {
	modelMatrix, err := p.model.Compute() // width=T, height=256
	if err != nil {
		return nil, err
	}

	window := p.sampleEnd - p.sampleStart
	// sums[k][s] holds {sumMT, sumM, sumS, sumM2, sumS2} for key k, sample s.
	type accum struct{ sumMT, sumM, sumS, sumM2, sumS2 float64 }
	sums := make([][]accum, 256)
	for k := range sums {
		sums[k] = make([]accum, window)
	}

	schedule := p.schedule()
	steps := make([]Step, 0, len(schedule))

	tracesDone := 0
	for _, checkpoint := range schedule {
		for t := tracesDone; t < checkpoint; t++ {
			for k := 0; k < 256; k++ {
				m := float64(modelMatrix.At(k, t))
				row := sums[k]
				for si := 0; si < window; si++ {
					s := float64(p.ds.Sample(p.sampleStart + si)[t])
					a := &row[si]
					a.sumMT += m * s
					a.sumM += m
					a.sumS += s
					a.sumM2 += m * m
					a.sumS2 += s * s
				}
			}
		}
		tracesDone = checkpoint

		out := matrix.New[float64](window, 256)
		n := float64(checkpoint)
		for k := 0; k < 256; k++ {
			row := sums[k]
			for si := 0; si < window; si++ {
				a := row[si]
				divisor := math.Sqrt(n*a.sumM2-a.sumM*a.sumM) * math.Sqrt(n*a.sumS2-a.sumS*a.sumS)
				rho := (n*a.sumMT - a.sumM*a.sumS) / divisor
				if math.IsNaN(rho) {
					warnedDegenerateOnce.Do(func() {
						glog.Warningf("Pearson CPA: degenerate denominator at key %d, sample %d; reporting NaN", k, p.sampleStart+si)
					})
				} else {
					rho = math.Abs(rho)
				}
				out.Set(k, si, rho)
			}
		}
		steps = append(steps, Step{TraceCount: checkpoint, Values: out})
	}

	return steps, nil
}
