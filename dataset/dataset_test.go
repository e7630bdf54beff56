package dataset

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildFixedSBoxDataset(t *testing.T, numTraces, numSamples int) *Dataset {
	t.Helper()
	b := NewBuilder().
		SetAlgorithm(AlgorithmSBox).
		SetPlaintextMode(PlaintextModeFixed).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey([]byte{0x2a})
	b.AppendPlaintext([]byte{0x11})
	for i := 0; i < numTraces; i++ {
		samples := make([]int32, numSamples)
		for s := range samples {
			samples[s] = int32(i + s)
		}
		b.AppendTrace(samples)
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ds
}

func TestBuildFixedDataset(t *testing.T) {
	ds := buildFixedSBoxDataset(t, 8, 4)
	if ds.NumTraces() != 8 || ds.NumSamples() != 4 {
		t.Fatalf("unexpected dataset shape: %d x %d", ds.NumTraces(), ds.NumSamples())
	}
	wantCt, err := Encrypt(AlgorithmSBox, []byte{0x2a}, []byte{0x11})
	if err != nil {
		t.Fatal(err)
	}
	for tr := 0; tr < 8; tr++ {
		if !bytes.Equal(ds.Plaintext(tr), []byte{0x11}) {
			t.Fatalf("trace %d plaintext mismatch", tr)
		}
		if !bytes.Equal(ds.Ciphertext(tr), wantCt) {
			t.Fatalf("trace %d ciphertext mismatch", tr)
		}
	}
}

func TestBuildRandomDatasetRequiresOnePlaintextPerTrace(t *testing.T) {
	b := NewBuilder().
		SetAlgorithm(AlgorithmSBox).
		SetPlaintextMode(PlaintextModeRandom).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey([]byte{0x01})
	b.AppendPlaintext([]byte{0x01})
	b.AppendTrace([]int32{1, 2, 3})
	b.AppendTrace([]int32{4, 5, 6})
	if _, err := b.Build(); err == nil {
		t.Fatal("expected Build to reject a random-mode dataset missing plaintexts")
	}
}

func TestChainedSynthesizesRemainingPlaintexts(t *testing.T) {
	key := []byte{0x2a}
	seed := []byte{0x11}
	b := NewBuilder().
		SetAlgorithm(AlgorithmSBox).
		SetPlaintextMode(PlaintextModeChained).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey(key)
	b.AppendPlaintext(seed)
	for i := 0; i < 4; i++ {
		b.AppendTrace([]int32{int32(i)})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := seed
	for tr := 0; tr < 4; tr++ {
		if !bytes.Equal(ds.Plaintext(tr), want) {
			t.Fatalf("trace %d plaintext = %x, want %x", tr, ds.Plaintext(tr), want)
		}
		want, err = Encrypt(AlgorithmSBox, key, want)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestSplitRandomMode(t *testing.T) {
	b := NewBuilder().
		SetAlgorithm(AlgorithmSBox).
		SetPlaintextMode(PlaintextModeRandom).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey([]byte{0x07})
	for i := 0; i < 10; i++ {
		b.AppendPlaintext([]byte{byte(i)})
		b.AppendTrace([]int32{int32(i * 10)})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	first, second, err := ds.Split(4)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if first.NumTraces() != 4 || second.NumTraces() != 6 {
		t.Fatalf("split sizes = %d/%d, want 4/6", first.NumTraces(), second.NumTraces())
	}
	for i := 0; i < 4; i++ {
		if !bytes.Equal(first.Plaintext(i), ds.Plaintext(i)) {
			t.Fatalf("first half plaintext %d mismatch", i)
		}
	}
	for i := 0; i < 6; i++ {
		if !bytes.Equal(second.Plaintext(i), ds.Plaintext(i+4)) {
			t.Fatalf("second half plaintext %d mismatch", i)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ds := buildFixedSBoxDataset(t, 5, 3)
	var buf bytes.Buffer
	if err := ds.SaveTo(&buf); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(&buf)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.NumTraces() != ds.NumTraces() || loaded.NumSamples() != ds.NumSamples() {
		t.Fatalf("round-tripped shape mismatch")
	}
	for s := 0; s < int(ds.NumSamples()); s++ {
		a, b := ds.Sample(s), loaded.Sample(s)
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("sample %d trace %d mismatch: %d vs %d", s, i, a[i], b[i])
			}
		}
	}
	if !bytes.Equal(ds.Ciphertext(0), loaded.Ciphertext(0)) {
		t.Fatal("re-derived ciphertext mismatch after round trip")
	}
}

func TestSaveLoadRoundTripChainedStoresOnlySeed(t *testing.T) {
	key := []byte{0x2a}
	seed := []byte{0x11}
	b := NewBuilder().
		SetAlgorithm(AlgorithmSBox).
		SetPlaintextMode(PlaintextModeChained).
		SetPlaintextSize(1).
		SetKeySize(1).
		SetKey(key)
	b.AppendPlaintext(seed)
	for i := 0; i < 4; i++ {
		b.AppendTrace([]int32{int32(i)})
	}
	ds, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := ds.SaveTo(&buf); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	// Only the seed plaintext (1 row) should have been persisted, not the
	// 4 synthesized rows the in-memory dataset holds: header + 1 plaintext
	// byte + 1 key byte + 4 traces x 1 sample x 4 bytes.
	wantLen := binary.Size(fileHeader{}) + 1 + 1 + 4*4
	if buf.Len() != wantLen {
		t.Fatalf("SaveTo wrote %d bytes, want %d (seed-only chained plaintext block)", buf.Len(), wantLen)
	}

	loaded, err := LoadFrom(&buf)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.NumTraces() != ds.NumTraces() {
		t.Fatalf("round-tripped trace count = %d, want %d", loaded.NumTraces(), ds.NumTraces())
	}
	for tr := 0; tr < int(ds.NumTraces()); tr++ {
		if !bytes.Equal(loaded.Plaintext(tr), ds.Plaintext(tr)) {
			t.Fatalf("trace %d plaintext = %x, want %x", tr, loaded.Plaintext(tr), ds.Plaintext(tr))
		}
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 64))
	_, err := LoadFrom(buf)
	if err == nil {
		t.Fatal("expected LoadFrom to reject a zeroed header")
	}
}
