package metrics

import (
	"fmt"

	"github.com/newae-go/metrisca"
)

func init() {
	metrisca.Register(metrisca.PluginMetric, "guess", func() metrisca.Plugin { return &Guess{} })
}

// Guess emits, for every step, trace_count plus the 256 key indices
// sorted by descending max|ρ|, per spec.md §4.8.
type Guess struct {
	rankBase
}

func (g *Guess) Type() metrisca.PluginType { return metrisca.PluginMetric }

func (g *Guess) Init(args *metrisca.ArgumentList) error { return g.init(args) }

func (g *Guess) Run(sink metrisca.RowSink) error {
	steps, err := g.compute()
	if err != nil {
		return err
	}
	sink.WriteCell("trace_count")
	for i := 0; i < 256; i++ {
		sink.WriteCell(fmt.Sprintf("guess_%d", i))
	}
	sink.EndRow()

	for _, step := range steps {
		scores := reduceStep(step)
		order := guessOrder(scores)
		sink.WriteCell(step.TraceCount)
		for _, k := range order {
			sink.WriteCell(k)
		}
		sink.EndRow()
	}
	return sink.Flush()
}
