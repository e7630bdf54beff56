package metrics

import "github.com/newae-go/metrisca"

func init() {
	metrisca.Register(metrisca.PluginMetric, "success-rate", func() metrisca.Plugin { return &SuccessRate{} })
}

// SuccessRate emits, for every step, trace_count plus 1 if the known
// key's rank is at most order, else 0, per spec.md §4.8.
type SuccessRate struct {
	rankBase
	order int
}

func (s *SuccessRate) Type() metrisca.PluginType { return metrisca.PluginMetric }

func (s *SuccessRate) Init(args *metrisca.ArgumentList) error {
	if err := s.init(args); err != nil {
		return err
	}
	order, ok := args.GetUint32(metrisca.ArgOrder)
	if !ok || order == 0 {
		order = 1
	}
	s.order = int(order)
	return nil
}

func (s *SuccessRate) Run(sink metrisca.RowSink) error {
	steps, err := s.compute()
	if err != nil {
		return err
	}
	sink.WriteCell("trace_count")
	sink.WriteCell("success")
	sink.EndRow()

	for _, step := range steps {
		scores := reduceStep(step)
		rank := rankOf(scores, s.knownKey)
		success := 0
		if rank <= s.order {
			success = 1
		}
		sink.WriteCell(step.TraceCount)
		sink.WriteCell(success)
		sink.EndRow()
	}
	return sink.Flush()
}
