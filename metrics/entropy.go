package metrics

import (
	"math"

	"github.com/newae-go/metrisca"
)

func init() {
	metrisca.Register(metrisca.PluginMetric, "guessing-entropy", func() metrisca.Plugin { return &GuessingEntropy{} })
}

// GuessingEntropy emits, for every step, trace_count plus
// log2(rank_of_known_key), rank being 1-based under the descending score
// order, per spec.md §4.8.
type GuessingEntropy struct {
	rankBase
}

func (e *GuessingEntropy) Type() metrisca.PluginType { return metrisca.PluginMetric }

func (e *GuessingEntropy) Init(args *metrisca.ArgumentList) error { return e.init(args) }

func (e *GuessingEntropy) Run(sink metrisca.RowSink) error {
	steps, err := e.compute()
	if err != nil {
		return err
	}
	sink.WriteCell("trace_count")
	sink.WriteCell("guessing_entropy")
	sink.EndRow()

	for _, step := range steps {
		scores := reduceStep(step)
		rank := rankOf(scores, e.knownKey)
		sink.WriteCell(step.TraceCount)
		sink.WriteCell(math.Log2(float64(rank)))
		sink.EndRow()
	}
	return sink.Flush()
}
