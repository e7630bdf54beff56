package scores

import (
	"math"
	"math/rand"
	"testing"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/dataset"
	_ "github.com/newae-go/metrisca/models"
)

func buildTemplateDataset(t *testing.T, key byte, numTraces int, seed int64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	b := dataset.NewBuilder().
		SetAlgorithm(dataset.AlgorithmSBox).
		SetPlaintextMode(dataset.PlaintextModeRandom).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey([]byte{key})
	for i := 0; i < numTraces; i++ {
		p := byte(rng.Intn(256))
		b.AppendPlaintext([]byte{p})
		hw := crypto128.HammingWeight8(crypto128.SBox[p^key])
		sample := int32(math.Round(float64(hw) + rng.NormFloat64()*0.2))
		b.AppendTrace([]int32{sample})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ds
}

func TestTemplateAttackRanksTrueKeyHigh(t *testing.T) {
	const key = 0x42
	profiling := buildTemplateDataset(t, key, 4000, 11)
	attacking := buildTemplateDataset(t, key, 2000, 22)

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgTrainingDataset, profiling)
	args.SetDataset(metrisca.ArgTestingDataset, attacking)
	args.SetString(metrisca.ArgModel, "hw-sbox")
	args.SetUint32(metrisca.ArgPoiCount, 1)
	args.SetUint32(metrisca.ArgTraceCount, 2000)

	plugin, err := metrisca.Construct(metrisca.PluginScore, "template", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	steps, err := plugin.(Engine).Compute()
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	last := steps[len(steps)-1]

	bestKey, bestScore := -1, math.Inf(-1)
	for k := 0; k < 256; k++ {
		s := last.Scores.At(0, k)
		if math.IsNaN(s) {
			continue
		}
		if s > bestScore {
			bestScore, bestKey = s, k
		}
	}
	if bestKey != key {
		t.Fatalf("template attack picked key 0x%02x, want 0x%02x", bestKey, key)
	}
}

func TestLegacyTemplateConstructsAndScores(t *testing.T) {
	const key = 0x10
	profiling := buildTemplateDataset(t, key, 2000, 33)
	attacking := buildTemplateDataset(t, key, 1000, 44)

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgTrainingDataset, profiling)
	args.SetDataset(metrisca.ArgTestingDataset, attacking)
	args.SetString(metrisca.ArgModel, "hw-sbox")
	args.SetUint32(metrisca.ArgPoiCount, 1)
	args.SetUint32(metrisca.ArgTraceCount, 1000)

	plugin, err := metrisca.Construct(metrisca.PluginScore, "template-legacy", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	steps, err := plugin.(Engine).Compute()
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(steps) != 1 || steps[0].TraceCount != 1000 {
		t.Fatalf("unexpected steps: %+v", steps)
	}
}
