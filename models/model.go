// Package models implements the power-model plugins of spec.md §4.4: each
// maps (trace, key hypothesis) to a modeled leakage value for one target
// byte, for the Hamming-weight, Hamming-distance and identity models under
// the single-byte S-Box and AES-128 algorithms. Grounded on leakModel in
// cmd/attack_sbox_cpa.go (S-Box Hamming weight) and on
// metrisca/models/hamming_weight.hpp / hamming_distance.hpp from the
// MetriSCA original for the AES-128 and Hamming-distance variants.
package models

import (
	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/crypto128"
	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/matrix"
)

// Model is the power-model plugin's single operation: produce the 256×T
// modeled-leakage matrix for the byte index fixed at Init time.
type Model interface {
	metrisca.Plugin
	Compute() (*matrix.Matrix[int32], error)
}

// base holds the (dataset, byte index) state every model shares, set once
// at Init and never mutated afterward.
type base struct {
	ds        *dataset.Dataset
	byteIndex int
}

func (b *base) Type() metrisca.PluginType { return metrisca.PluginPowerModel }

func (b *base) init(args *metrisca.ArgumentList) error {
	d, ok := args.GetDataset(metrisca.ArgDataset)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "power model requires %q", metrisca.ArgDataset)
	}
	ds, ok := d.(*dataset.Dataset)
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "%q is not a *dataset.Dataset", metrisca.ArgDataset)
	}
	byteIndex, ok := args.GetUint32(metrisca.ArgByteIndex)
	if !ok {
		return metrisca.Errorf(metrisca.MissingArgument, "power model requires %q", metrisca.ArgByteIndex)
	}
	if int(byteIndex) >= int(ds.Header().PlaintextSize) {
		return metrisca.Errorf(metrisca.InvalidArgument, "byte index %d out of range for plaintext size %d", byteIndex, ds.Header().PlaintextSize)
	}
	b.ds = ds
	b.byteIndex = int(byteIndex)
	return nil
}

func requireAlgorithm(ds *dataset.Dataset, want dataset.Algorithm, modelName string) error {
	if ds.Header().Algorithm != want {
		return metrisca.Errorf(metrisca.UnsupportedOperation, "%s model does not support algorithm %v", modelName, ds.Header().Algorithm)
	}
	return nil
}

func newOutput(ds *dataset.Dataset) *matrix.Matrix[int32] {
	return matrix.New[int32](int(ds.NumTraces()), 256)
}

func init() {
	metrisca.Register(metrisca.PluginPowerModel, "hw-sbox", func() metrisca.Plugin { return &hwSBox{} })
	metrisca.Register(metrisca.PluginPowerModel, "hw-aes128", func() metrisca.Plugin { return &hwAES128{} })
	metrisca.Register(metrisca.PluginPowerModel, "hd-sbox", func() metrisca.Plugin { return &hdSBox{} })
	metrisca.Register(metrisca.PluginPowerModel, "hd-aes128", func() metrisca.Plugin { return &hdAES128{} })
	metrisca.Register(metrisca.PluginPowerModel, "id-sbox", func() metrisca.Plugin { return &idSBox{} })
	metrisca.Register(metrisca.PluginPowerModel, "id-aes128", func() metrisca.Plugin { return &idAES128{} })
}

// hwSBox: HW(S(p[byte] ⊕ k)).
type hwSBox struct{ base }

func (m *hwSBox) Init(args *metrisca.ArgumentList) error { return m.init(args) }

func (m *hwSBox) Compute() (*matrix.Matrix[int32], error) {
	if err := requireAlgorithm(m.ds, dataset.AlgorithmSBox, "hw-sbox"); err != nil {
		return nil, err
	}
	out := newOutput(m.ds)
	for t := 0; t < int(m.ds.NumTraces()); t++ {
		p := m.ds.Plaintext(t)[m.byteIndex]
		for k := 0; k < 256; k++ {
			v := crypto128.SBox[p^byte(k)]
			out.Set(k, t, int32(crypto128.HammingWeight8(v)))
		}
	}
	return out, nil
}

// hwAES128: HW(S⁻¹(k ⊕ c[byte])).
type hwAES128 struct{ base }

func (m *hwAES128) Init(args *metrisca.ArgumentList) error { return m.init(args) }

func (m *hwAES128) Compute() (*matrix.Matrix[int32], error) {
	if err := requireAlgorithm(m.ds, dataset.AlgorithmAES128, "hw-aes128"); err != nil {
		return nil, err
	}
	out := newOutput(m.ds)
	for t := 0; t < int(m.ds.NumTraces()); t++ {
		c := m.ds.Ciphertext(t)[m.byteIndex]
		for k := 0; k < 256; k++ {
			v := crypto128.InvSBox[c^byte(k)]
			out.Set(k, t, int32(crypto128.HammingWeight8(v)))
		}
	}
	return out, nil
}

// hdSBox: HD(S(0), S(p[byte] ⊕ k)).
type hdSBox struct{ base }

func (m *hdSBox) Init(args *metrisca.ArgumentList) error { return m.init(args) }

func (m *hdSBox) Compute() (*matrix.Matrix[int32], error) {
	if err := requireAlgorithm(m.ds, dataset.AlgorithmSBox, "hd-sbox"); err != nil {
		return nil, err
	}
	reference := crypto128.SBox[0]
	out := newOutput(m.ds)
	for t := 0; t < int(m.ds.NumTraces()); t++ {
		p := m.ds.Plaintext(t)[m.byteIndex]
		for k := 0; k < 256; k++ {
			v := crypto128.SBox[p^byte(k)]
			out.Set(k, t, int32(crypto128.HammingDistance8(reference, v)))
		}
	}
	return out, nil
}

// shiftRowIndex maps a byte index to the AES-128 ShiftRows source index for
// the final-round's inverse step, as used by hdAES128's reference byte.
func shiftRowIndex(b int) int {
	// ShiftRows permutation (state laid out column-major, 4x4): row r is
	// rotated left by r positions. byte index = col*4+row.
	col, row := b/4, b%4
	srcCol := (col + row) % 4
	return srcCol*4 + row
}

// hdAES128: HD(c[ShiftRow(byte)], S⁻¹(k ⊕ c[byte])).
type hdAES128 struct{ base }

func (m *hdAES128) Init(args *metrisca.ArgumentList) error { return m.init(args) }

func (m *hdAES128) Compute() (*matrix.Matrix[int32], error) {
	if err := requireAlgorithm(m.ds, dataset.AlgorithmAES128, "hd-aes128"); err != nil {
		return nil, err
	}
	ref := shiftRowIndex(m.byteIndex)
	out := newOutput(m.ds)
	for t := 0; t < int(m.ds.NumTraces()); t++ {
		ct := m.ds.Ciphertext(t)
		c := ct[m.byteIndex]
		prev := ct[ref]
		for k := 0; k < 256; k++ {
			v := crypto128.InvSBox[c^byte(k)]
			out.Set(k, t, int32(crypto128.HammingDistance8(prev, v)))
		}
	}
	return out, nil
}

// idSBox: c[0] regardless of k — degenerate, kept for symmetry with the
// AES-128 identity model.
type idSBox struct{ base }

func (m *idSBox) Init(args *metrisca.ArgumentList) error { return m.init(args) }

func (m *idSBox) Compute() (*matrix.Matrix[int32], error) {
	if err := requireAlgorithm(m.ds, dataset.AlgorithmSBox, "id-sbox"); err != nil {
		return nil, err
	}
	out := newOutput(m.ds)
	for t := 0; t < int(m.ds.NumTraces()); t++ {
		v := int32(m.ds.Ciphertext(t)[0])
		for k := 0; k < 256; k++ {
			out.Set(k, t, v)
		}
	}
	return out, nil
}

// idAES128: S⁻¹(k ⊕ c[byte]).
type idAES128 struct{ base }

func (m *idAES128) Init(args *metrisca.ArgumentList) error { return m.init(args) }

func (m *idAES128) Compute() (*matrix.Matrix[int32], error) {
	if err := requireAlgorithm(m.ds, dataset.AlgorithmAES128, "id-aes128"); err != nil {
		return nil, err
	}
	out := newOutput(m.ds)
	for t := 0; t < int(m.ds.NumTraces()); t++ {
		c := m.ds.Ciphertext(t)[m.byteIndex]
		for k := 0; k < 256; k++ {
			out.Set(k, t, int32(crypto128.InvSBox[c^byte(k)]))
		}
	}
	return out, nil
}
