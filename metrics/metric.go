// Package metrics implements the spec.md §4.8 metrics that consume
// distinguisher, score, or profiler output and reduce it to the sink rows
// an operator actually reads: rank/score/guess ordering, guessing entropy,
// success rate, the Welch t-test matrix, MI, PI, and key enumeration.
// Grounded on metrisca/metrics/*.hpp from the MetriSCA original for the
// per-metric reduction formulas, and on cmd/attack_sbox_cpa.go /
// cmd/ecdh_zero_point_template_attack.go for the CSV row shapes an
// operator expects out of this toolkit.
package metrics

import "github.com/newae-go/metrisca"

// Metric is the shared contract: construct, Init from the argument bag,
// then Run writes a header row followed by one row per step to sink.
type Metric interface {
	metrisca.Plugin
	Run(sink metrisca.RowSink) error
}

// schedule returns the inclusive trace-count checkpoints for a (traceMax,
// step) pair: step, 2*step, ... <= traceMax if step > 0, followed by
// traceMax itself when it is not already the last multiple; else {traceMax}.
// Duplicated locally rather than exported from distinguishers/scores,
// matching the teacher's preference for small self-contained helpers over
// a shared-util package for a three-line loop.
func schedule(traceMax, step int) []int {
	if step <= 0 {
		return []int{traceMax}
	}
	var out []int
	for n := step; n <= traceMax; n += step {
		out = append(out, n)
	}
	if len(out) == 0 || out[len(out)-1] != traceMax {
		out = append(out, traceMax)
	}
	return out
}
