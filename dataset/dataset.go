// Package dataset implements the in-memory trace dataset: samples, known
// plaintexts/keys, and the ciphertexts derived from them at construction
// time. Grounded on metrisca/core/trace_dataset.hpp from the MetriSCA
// original and on the Capture/SamplesMatrix column layout in capture.go
// from the teacher.
package dataset

import (
	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/matrix"
)

// Algorithm identifies the cryptographic primitive a dataset's plaintexts
// were run through to produce its ciphertexts.
type Algorithm uint32

const (
	AlgorithmUnknown Algorithm = iota
	AlgorithmSBox
	AlgorithmAES128
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmSBox:
		return "sbox"
	case AlgorithmAES128:
		return "aes128"
	default:
		return "unknown"
	}
}

// PlaintextMode identifies how a dataset's plaintext rows were generated.
type PlaintextMode uint32

const (
	PlaintextModeUnknown PlaintextMode = iota
	PlaintextModeFixed
	PlaintextModeRandom
	PlaintextModeChained
)

func (m PlaintextMode) String() string {
	switch m {
	case PlaintextModeFixed:
		return "fixed"
	case PlaintextModeRandom:
		return "random"
	case PlaintextModeChained:
		return "chained"
	default:
		return "unknown"
	}
}

// KeyMode identifies how a dataset's key row was generated. Only fixed-key
// datasets are supported, per spec.md §3.
type KeyMode uint32

const (
	KeyModeUnknown KeyMode = iota
	KeyModeFixed
)

func (m KeyMode) String() string {
	if m == KeyModeFixed {
		return "fixed"
	}
	return "unknown"
}

// Header carries the metadata that accompanies every dataset, immutable
// once built.
type Header struct {
	TimeResolution    float64
	CurrentResolution float64
	NumTraces         uint32
	NumSamples        uint32
	Algorithm         Algorithm
	PlaintextMode     PlaintextMode
	PlaintextSize     uint32
	KeyMode           KeyMode
	KeySize           uint32
}

// Dataset owns a trace matrix and the plaintext/key/ciphertext matrices
// derived from it. Once returned by Builder.Build it is read-only and may
// be shared by any number of plugins.
type Dataset struct {
	header      Header
	samples     *matrix.Matrix[int32] // width = NumTraces, height = NumSamples
	plaintexts  *matrix.Matrix[uint8] // width = PlaintextSize, height = 1 or NumTraces
	keys        *matrix.Matrix[uint8] // width = KeySize, height = 1
	ciphertexts *matrix.Matrix[uint8] // same shape as plaintexts
}

// Header returns a copy of the dataset's metadata.
func (d *Dataset) Header() Header { return d.header }

// NumTraces is the number of traces (columns of the sample matrix).
func (d *Dataset) NumTraces() uint32 { return d.header.NumTraces }

// NumSamples is the number of samples per trace (rows of the sample
// matrix).
func (d *Dataset) NumSamples() uint32 { return d.header.NumSamples }

// Size satisfies the minimal structural interface argbag.GetDataset relies
// on to avoid an import cycle between metrisca and dataset.
func (d *Dataset) Size() uint32 { return d.header.NumTraces }

// Sample returns a read-only view of sample s across every trace.
func (d *Dataset) Sample(s int) []int32 {
	return d.samples.Row(s)
}

// GetMeanSample returns the per-sample mean across every trace: index s of
// the result is the average of Sample(s). Useful for a quick at-a-glance
// overview of a dataset, e.g. in the results viewer.
func (d *Dataset) GetMeanSample() []float64 {
	out := make([]float64, d.header.NumSamples)
	for s := range out {
		row := d.samples.Row(s)
		var sum float64
		for _, v := range row {
			sum += float64(v)
		}
		out[s] = sum / float64(len(row))
	}
	return out
}

func (d *Dataset) plaintextRow(t int) int {
	if d.header.PlaintextMode == PlaintextModeFixed {
		return 0
	}
	return t
}

// Plaintext returns a read-only view of the plaintext used for trace t.
func (d *Dataset) Plaintext(t int) []byte {
	return d.plaintexts.Row(d.plaintextRow(t))
}

// Ciphertext returns a read-only view of the ciphertext derived for trace
// t.
func (d *Dataset) Ciphertext(t int) []byte {
	return d.ciphertexts.Row(d.plaintextRow(t))
}

// Key returns a read-only view of the fixed key shared by every trace.
func (d *Dataset) Key() []byte {
	return d.keys.Row(0)
}

// Split partitions the dataset into two: the first owning traces
// [0, n) and the second owning [n, NumTraces). Chained mode degrades to
// random in both halves since the chain is no longer reconstructible from
// either half alone. n must lie strictly between 0 and NumTraces so that
// each half holds at least one trace.
func (d *Dataset) Split(n int) (*Dataset, *Dataset, error) {
	total := int(d.header.NumTraces)
	if n <= 0 || n >= total {
		return nil, nil, metrisca.Errorf(metrisca.InvalidArgument, "split point %d out of range (0, %d)", n, total)
	}

	first := &Dataset{header: d.header}
	second := &Dataset{header: d.header}
	first.header.NumTraces = uint32(n)
	second.header.NumTraces = uint32(total - n)

	first.samples = d.samples.Submatrix(0, 0, d.samples.Height(), n)
	second.samples = d.samples.Submatrix(0, n, d.samples.Height(), total)

	if d.header.PlaintextMode == PlaintextModeFixed {
		first.header.PlaintextMode = PlaintextModeFixed
		second.header.PlaintextMode = PlaintextModeFixed
		first.plaintexts = d.plaintexts.Copy()
		second.plaintexts = d.plaintexts.Copy()
		first.ciphertexts = d.ciphertexts.Copy()
		second.ciphertexts = d.ciphertexts.Copy()
	} else {
		// Random or chained: the stored matrix already carries one row
		// per trace; chained degrades to random because neither half can
		// reconstruct the broken chain on its own.
		first.header.PlaintextMode = PlaintextModeRandom
		second.header.PlaintextMode = PlaintextModeRandom
		first.plaintexts = d.plaintexts.Submatrix(0, 0, n, d.plaintexts.Width())
		second.plaintexts = d.plaintexts.Submatrix(n, 0, total, d.plaintexts.Width())
		first.ciphertexts = d.ciphertexts.Submatrix(0, 0, n, d.ciphertexts.Width())
		second.ciphertexts = d.ciphertexts.Submatrix(n, 0, total, d.ciphertexts.Width())
	}

	first.keys = d.keys.Copy()
	second.keys = d.keys.Copy()

	return first, second, nil
}

// Encrypt applies the dataset's selected primitive to plaintext under key:
// a single S-box lookup per byte for AlgorithmSBox, or full AES-128
// encryption for AlgorithmAES128. The builder's chained synthesis and
// ciphertext derivation and Load's re-derivation all share this one
// implementation.
func Encrypt(algo Algorithm, key, plaintext []byte) ([]byte, error) {
	switch algo {
	case AlgorithmSBox:
		out := make([]byte, len(plaintext))
		for i, p := range plaintext {
			out[i] = crypto128.SBox[p^key[i%len(key)]]
		}
		return out, nil
	case AlgorithmAES128:
		return crypto128.EncryptBlock(key, plaintext)
	default:
		return nil, metrisca.Errorf(metrisca.UnsupportedOperation, "unsupported algorithm %v", algo)
	}
}
