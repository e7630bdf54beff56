package scores

import (
	"math"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/distinguishers"
	"github.com/newae-go/metrisca/matrix"
)

func init() {
	metrisca.Register(metrisca.PluginScore, "cpa", func() metrisca.Plugin { return &CPA{} })
}

// CPA reduces the Pearson CPA distinguisher's per-step 256×window matrix
// to a 256-element log-score vector, independently per key byte, per
// spec.md §4.7.
type CPA struct {
	ds          *dataset.Dataset
	modelName   string
	sampleStart uint32
	sampleEnd   uint32
	traceMax    uint32
	step        uint32
	numBytes    int
}

func (c *CPA) Type() metrisca.PluginType { return metrisca.PluginScore }

func (c *CPA) Init(args *metrisca.ArgumentList) error {
	d, ok := args.GetDataset(metrisca.ArgDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "CPA score requires %q", metrisca.ArgDataset)
	}
	ds, ok := d.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgDataset)
	}
	modelName, ok := args.GetString(metrisca.ArgModel)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "CPA score requires %q", metrisca.ArgModel)
	}
	sampleStart, _ := args.GetUint32(metrisca.ArgSampleStart)
	sampleEnd, ok := args.GetUint32(metrisca.ArgSampleEnd)
	if !ok {
		sampleEnd = ds.NumSamples()
	}
	traceMax, ok := args.GetUint32(metrisca.ArgTraceCount)
	if !ok {
		traceMax = ds.NumTraces()
	}
	step, _ := args.GetUint32(metrisca.ArgTraceStep)

	c.ds = ds
	c.modelName = modelName
	c.sampleStart = sampleStart
	c.sampleEnd = sampleEnd
	c.traceMax = traceMax
	c.step = step
	c.numBytes = int(ds.Header().PlaintextSize)
	return nil
}

func (c *CPA) byteArgs(byteIndex int) *metrisca.ArgumentList {
	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, c.ds)
	args.SetString(metrisca.ArgModel, c.modelName)
	args.SetUint32(metrisca.ArgByteIndex, uint32(byteIndex))
	args.SetUint32(metrisca.ArgSampleStart, c.sampleStart)
	args.SetUint32(metrisca.ArgSampleEnd, c.sampleEnd)
	args.SetUint32(metrisca.ArgTraceCount, c.traceMax)
	args.SetUint32(metrisca.ArgTraceStep, c.step)
	return args
}

// Compute runs one Pearson distinguisher per key byte and reduces each
// step's 256×window matrix to log(max_s |ρ|) per key hypothesis.
func (c *CPA) Compute() ([]Step, error) {
	perByteSteps := make([][]distinguishers.Step, c.numBytes)
	perByteErr := make([]error, c.numBytes)
	metrisca.ParallelFor(0, c.numBytes, func(b int) {
		plugin, err := metrisca.Construct(metrisca.PluginDistinguisher, "pearson", c.byteArgs(b))
		if err != nil {
			perByteErr[b] = err
			return
		}
		steps, err := plugin.(distinguishers.Distinguisher).Compute()
		if err != nil {
			perByteErr[b] = err
			return
		}
		perByteSteps[b] = steps
	})
	for _, err := range perByteErr {
		if err != nil {
			return nil, err
		}
	}

	numSteps := len(perByteSteps[0])
	out := make([]Step, numSteps)
	for si := 0; si < numSteps; si++ {
		scores := matrix.New[float64](256, c.numBytes)
		traceCount := perByteSteps[0][si].TraceCount
		for b := 0; b < c.numBytes; b++ {
			values := perByteSteps[b][si].Values // width=window, height=256
			for k := 0; k < 256; k++ {
				row := values.Row(k)
				max := 0.0
				for _, v := range row {
					if v > max {
						max = v
					}
				}
				scores.Set(b, k, math.Log(max))
			}
		}
		out[si] = Step{TraceCount: traceCount, Scores: scores}
	}
	return out, nil
}
