package distinguishers

import (
	"math"
	"math/rand"
	"testing"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/dataset"
	_ "github.com/newae-go/metrisca/models"
)

// buildLeakyDataset constructs a single-sample-per-trace dataset whose one
// sample is HW(S(p ^ key)) plus small noise, the scenario from spec.md §8
// scenario A.
func buildLeakyDataset(t *testing.T, key byte, numTraces int, seed int64) *dataset.Dataset {
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
		noise := rng.NormFloat64() * 0.05
		sample := int32(math.Round(float64(hw) + noise))
		b.AppendTrace([]int32{sample})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ds
}

func TestPearsonCPARecoversKey(t *testing.T) {
	const key = 0x2a
	ds := buildLeakyDataset(t, key, 1024, 1)

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	args.SetString(metrisca.ArgModel, "hw-sbox")
	args.SetUint32(metrisca.ArgByteIndex, 0)
	args.SetUint32(metrisca.ArgTraceStep, 128)

	plugin, err := metrisca.Construct(metrisca.PluginDistinguisher, "pearson", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	steps, err := plugin.(Distinguisher).Compute()
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(steps) == 0 {
		t.Fatal("expected at least one step")
	}

	last := steps[len(steps)-1]
	if last.TraceCount != 1024 {
		t.Fatalf("last step trace count = %d, want 1024", last.TraceCount)
	}
	bestKey, bestRho := -1, -1.0
	for k := 0; k < 256; k++ {
		rho := last.Values.At(k, 0)
		if rho > bestRho {
			bestRho, bestKey = rho, k
		}
	}
	if bestKey != key {
		t.Fatalf("argmax key = 0x%02x, want 0x%02x", bestKey, key)
	}

	var prev float64
	for i, s := range steps {
		rho := s.Values.At(key, 0)
		if i > 0 && rho < prev-1e-9 {
			t.Fatalf("step %d: |rho| for the true key decreased from %v to %v", i, prev, rho)
		}
		prev = rho
	}
}

func TestPearsonRejectsFixedPlaintextMode(t *testing.T) {
	b := dataset.NewBuilder().
		SetAlgorithm(dataset.AlgorithmSBox).
		SetPlaintextMode(dataset.PlaintextModeFixed).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey([]byte{0x2a})
	b.AppendPlaintext([]byte{0x11})
	for i := 0; i < 4; i++ {
		b.AppendTrace([]int32{int32(i)})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	args.SetString(metrisca.ArgModel, "hw-sbox")
	args.SetUint32(metrisca.ArgByteIndex, 0)

	if _, err := metrisca.Construct(metrisca.PluginDistinguisher, "pearson", args); err == nil {
		t.Fatal("expected Pearson to refuse a fixed-plaintext dataset")
	} else if kind, ok := metrisca.KindOf(err); !ok || kind != metrisca.UnsupportedOperation {
		t.Fatalf("expected UnsupportedOperation, got %v", err)
	}
}
