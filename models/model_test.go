package models

import (
	"testing"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/dataset"
)

func buildSBoxDataset(t *testing.T, key byte, numTraces int) *dataset.Dataset {
	t.Helper()
	b := dataset.NewBuilder().
		SetAlgorithm(dataset.AlgorithmSBox).
		SetPlaintextMode(dataset.PlaintextModeRandom).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey([]byte{key})
	for i := 0; i < numTraces; i++ {
		b.AppendPlaintext([]byte{byte(i)})
		b.AppendTrace([]int32{int32(i)})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ds
}

func TestHWSBoxModelMatchesTrueKey(t *testing.T) {
	const key = 0x2a
	ds := buildSBoxDataset(t, key, 16)

	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	args.SetUint32(metrisca.ArgByteIndex, 0)

	plugin, err := metrisca.Construct(metrisca.PluginPowerModel, "hw-sbox", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	model := plugin.(Model)
	out, err := model.Compute()
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for tr := 0; tr < 16; tr++ {
		want := crypto128.HammingWeight8(crypto128.SBox[byte(tr)^key])
		got := out.At(key, tr)
		if int(got) != want {
			t.Fatalf("trace %d: model[key][trace] = %d, want %d", tr, got, want)
		}
	}
}

func TestModelRejectsWrongAlgorithm(t *testing.T) {
	ds := buildSBoxDataset(t, 0x01, 4)
	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	args.SetUint32(metrisca.ArgByteIndex, 0)

	plugin, err := metrisca.Construct(metrisca.PluginPowerModel, "hw-aes128", args)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	model := plugin.(Model)
	if _, err := model.Compute(); err == nil {
		t.Fatal("expected hw-aes128 to reject an S-Box dataset")
	} else if kind, ok := metrisca.KindOf(err); !ok || kind != metrisca.UnsupportedOperation {
		t.Fatalf("expected UnsupportedOperation, got %v", err)
	}
}

func TestModelRejectsOutOfRangeByteIndex(t *testing.T) {
	ds := buildSBoxDataset(t, 0x01, 4)
	args := metrisca.NewArgumentList()
	args.SetDataset(metrisca.ArgDataset, ds)
	args.SetUint32(metrisca.ArgByteIndex, 5)

	if _, err := metrisca.Construct(metrisca.PluginPowerModel, "hw-sbox", args); err == nil {
		t.Fatal("expected Construct to reject an out-of-range byte index")
	}
}
