package metrics

import (
	"bytes"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/dataset"
)

func buildIdentityLeakDataset(t *testing.T, key byte, numTraces int, seed int64) *dataset.Dataset {
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
		id := crypto128.SBox[p^key]
		sample := int32(math.Round(float64(id)*10 + rng.NormFloat64()*0.5))
		b.AppendTrace([]int32{sample})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ds
}

func TestMIMetricProducesPositiveInformation(t *testing.T) {
	const key = 0x11
	ds := buildIdentityLeakDataset(t, key, 6000, 21)

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	plugin, err := metrisca.Construct(metrisca.PluginMetric, "mi", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	var buf bytes.Buffer
	sink := metrisca.NewCSVSinkWriter(&buf, ',')
	if err := plugin.(Metric).Run(sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	fields := strings.Split(lines[1], ",")
	mi, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		t.Fatalf("parsing MI: %v", err)
	}
	if mi <= 0 {
		t.Fatalf("want MI > 0 for a strongly leaking identity model, got %v", mi)
	}
}

func TestPIMetricProducesPositiveInformation(t *testing.T) {
	const key = 0x11
	training := buildIdentityLeakDataset(t, key, 6000, 31)
	attackSet := buildIdentityLeakDataset(t, key, 3000, 32)

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgTrainingDataset, training)
	args.SetDataset(metrisca.ArgTestingDataset, attackSet)
	plugin, err := metrisca.Construct(metrisca.PluginMetric, "pi", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	var buf bytes.Buffer
	sink := metrisca.NewCSVSinkWriter(&buf, ',')
	if err := plugin.(Metric).Run(sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	fields := strings.Split(lines[1], ",")
	pi, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		t.Fatalf("parsing PI: %v", err)
	}
	if pi <= 0 {
		t.Fatalf("want PI > 0 for a strongly leaking identity model, got %v", pi)
	}
}
