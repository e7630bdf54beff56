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

func buildLeakySBoxDataset(t *testing.T, key byte, numTraces int, seed int64) *dataset.Dataset {
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
		sample := int32(math.Round(float64(hw) + rng.NormFloat64()*0.05))
		b.AppendTrace([]int32{sample})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ds
}

func distArgs(ds *dataset.Dataset) *metrisca.ArgumentList {
	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	args.SetString(metrisca.ArgModel, "hw-sbox")
	args.SetUint32(metrisca.ArgTraceStep, 256)
	return args
}

func TestScoreMetricHeaderAndKeyRank(t *testing.T) {
	const key = 0x5a
	ds := buildLeakySBoxDataset(t, key, 1024, 1)

	plugin, err := metrisca.Construct(metrisca.PluginMetric, "score", distArgs(ds))
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	var buf bytes.Buffer
	sink := metrisca.NewCSVSinkWriter(&buf, ',')
	if err := plugin.(Metric).Run(sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[0], `"trace_count","score_key_0",`) {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if len(lines) < 2 {
		t.Fatalf("expected at least one data row")
	}
}

func TestGuessMetricPutsTrueKeyFirstAtFullTraceCount(t *testing.T) {
	const key = 0x5a
	ds := buildLeakySBoxDataset(t, key, 1024, 2)

	plugin, err := metrisca.Construct(metrisca.PluginMetric, "guess", distArgs(ds))
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	var buf bytes.Buffer
	sink := metrisca.NewCSVSinkWriter(&buf, ',')
	if err := plugin.(Metric).Run(sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	last := lines[len(lines)-1]
	fields := strings.Split(last, ",")
	// fields[0] = trace_count, fields[1] = guess_0 (top-ranked key).
	if fields[1] != "90" { // 0x5a == 90
		t.Fatalf("want top guess 90 (0x5a), got %s in row %q", fields[1], last)
	}
}

func TestGuessingEntropyConvergesToZero(t *testing.T) {
	const key = 0x5a
	ds := buildLeakySBoxDataset(t, key, 1024, 3)

	plugin, err := metrisca.Construct(metrisca.PluginMetric, "guessing-entropy", distArgs(ds))
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	var buf bytes.Buffer
	sink := metrisca.NewCSVSinkWriter(&buf, ',')
	if err := plugin.(Metric).Run(sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	last := strings.Split(lines[len(lines)-1], ",")
	if last[1] != "0" {
		t.Fatalf("want guessing entropy 0 (log2(rank=1)) at full trace count, got %s", last[1])
	}
}

func TestSuccessRateOrderOne(t *testing.T) {
	const key = 0x5a
	ds := buildLeakySBoxDataset(t, key, 1024, 4)

	args := distArgs(ds)
	args.SetUint32(metrisca.ArgOrder, 1)
	plugin, err := metrisca.Construct(metrisca.PluginMetric, "success-rate", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	var buf bytes.Buffer
	sink := metrisca.NewCSVSinkWriter(&buf, ',')
	if err := plugin.(Metric).Run(sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	last := strings.Split(lines[len(lines)-1], ",")
	if last[1] != "1" {
		t.Fatalf("want success=1 at full trace count, got %s", last[1])
	}
}

func TestWelchMetricGaussianNoiseStaysSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	buildNoise := func() *dataset.Dataset {
		b := dataset.NewBuilder().
			SetAlgorithm(dataset.AlgorithmSBox).
			SetPlaintextMode(dataset.PlaintextModeRandom).
			SetPlaintextSize(1).
			SetKeySize(1).
			SetKey([]byte{0x01})
		for i := 0; i < 4096; i++ {
			b.AppendPlaintext([]byte{byte(rng.Intn(256))})
			b.AppendTrace([]int32{int32(math.Round(rng.NormFloat64() * 100))})
		}
		ds, err := b.Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return ds
	}
	fixed, random := buildNoise(), buildNoise()

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgFixedDataset, fixed)
	args.SetDataset(metrisca.ArgRandomDataset, random)
	plugin, err := metrisca.Construct(metrisca.PluginMetric, "welch", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	var buf bytes.Buffer
	sink := metrisca.NewCSVSinkWriter(&buf, ',')
	if err := plugin.(Metric).Run(sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	last := strings.Split(lines[len(lines)-1], ",")
	tStat, err := strconv.ParseFloat(last[1], 64)
	if err != nil {
		t.Fatalf("parsing t statistic: %v", err)
	}
	if math.Abs(tStat) > 5 {
		t.Fatalf("expected a small |t| for independent noise, got %v", tStat)
	}
}
