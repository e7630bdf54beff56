// Package scores implements the score engines of spec.md §4.7: CPA score,
// the Bayesian template attack, and its legacy variant. Every engine
// produces a step-indexed sequence of per-key-byte 256-element log-score
// vectors. Grounded on cmd/ecdh_zero_point_template_attack.go (profiling /
// attack phase split, POI selection, Cholesky-inverted covariance scoring)
// and on metrisca/scores/template_attack.hpp from the MetriSCA original.
package scores

import (
	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/matrix"
)

// Step is one entry of a score engine's output: the trace count it was
// computed over and a (numKeyBytes x 256) matrix of log-scores, row b
// holding the 256 hypotheses for key byte b.
type Step struct {
	TraceCount int
	Scores     *matrix.Matrix[float64]
}

// Engine is the shared score-engine contract.
type Engine interface {
	metrisca.Plugin
	Compute() ([]Step, error)
}

// schedule returns the inclusive trace-count checkpoints for a (traceMax,
// step) pair: step, 2*step, ... <= traceMax if step > 0, followed by
// traceMax itself when it is not already the last multiple; else {traceMax}.
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
