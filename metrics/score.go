package metrics

import (
	"fmt"

	"github.com/newae-go/metrisca"
)

func init() {
	metrisca.Register(metrisca.PluginMetric, "score", func() metrisca.Plugin { return &Score{} })
}

// Score emits, for every step, trace_count plus the 256 score_key_k
// columns equal to max|ρ| in that key's row, per spec.md §4.8.
type Score struct {
	rankBase
}

func (s *Score) Type() metrisca.PluginType { return metrisca.PluginMetric }

func (s *Score) Init(args *metrisca.ArgumentList) error { return s.init(args) }

func (s *Score) Run(sink metrisca.RowSink) error {
	steps, err := s.compute()
	if err != nil {
		return err
	}
	sink.WriteCell("trace_count")
	for k := 0; k < 256; k++ {
		sink.WriteCell(fmt.Sprintf("score_key_%d", k))
	}
	sink.EndRow()

	for _, step := range steps {
		scores := reduceStep(step)
		sink.WriteCell(step.TraceCount)
		for k := 0; k < 256; k++ {
			sink.WriteCell(scores[k])
		}
		sink.EndRow()
	}
	return sink.Flush()
}
