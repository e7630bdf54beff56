package dataset

import (
	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/matrix"
)

// Builder accumulates raw samples, plaintexts and a key column-by-column
// (trace-by-trace) and validates everything at Build, per spec.md §4.3.
// Grounded on NewCapture's trace-by-trace accumulation in capture.go,
// adapted from a hardware-driven append loop to a plain in-memory builder.
type Builder struct {
	header     Header
	traces     [][]int32
	plaintexts [][]byte
	key        []byte
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) SetTimeResolution(v float64) *Builder    { b.header.TimeResolution = v; return b }
func (b *Builder) SetCurrentResolution(v float64) *Builder { b.header.CurrentResolution = v; return b }
func (b *Builder) SetAlgorithm(a Algorithm) *Builder       { b.header.Algorithm = a; return b }
func (b *Builder) SetPlaintextMode(m PlaintextMode) *Builder {
	b.header.PlaintextMode = m
	return b
}
func (b *Builder) SetPlaintextSize(n uint32) *Builder { b.header.PlaintextSize = n; return b }
func (b *Builder) SetKeySize(n uint32) *Builder       { b.header.KeySize = n; return b }

// AppendTrace appends one trace's full sample column. All traces must have
// the same length.
func (b *Builder) AppendTrace(samples []int32) *Builder {
	b.traces = append(b.traces, samples)
	return b
}

// AppendPlaintext appends one plaintext row. How many are expected depends
// on the plaintext mode: exactly one for Fixed and Chained (the seed),
// exactly NumTraces for Random.
func (b *Builder) AppendPlaintext(p []byte) *Builder {
	b.plaintexts = append(b.plaintexts, p)
	return b
}

// SetKey sets the dataset's single fixed key.
func (b *Builder) SetKey(key []byte) *Builder {
	b.key = key
	b.header.KeyMode = KeyModeFixed
	return b
}

// Build validates the accumulated state and returns an immutable Dataset,
// synthesizing chained plaintexts and deriving ciphertexts along the way.
func (b *Builder) Build() (*Dataset, error) {
	numTraces := len(b.traces)
	if numTraces == 0 {
		return nil, metrisca.NewError(metrisca.InvalidData)
	}
	numSamples := len(b.traces[0])
	for i, t := range b.traces {
		if len(t) != numSamples {
			return nil, metrisca.Errorf(metrisca.InvalidData, "trace %d has %d samples, want %d", i, len(t), numSamples)
		}
	}

	if b.header.KeyMode != KeyModeFixed {
		return nil, metrisca.Errorf(metrisca.InvalidData, "dataset requires a fixed key")
	}
	if len(b.key) != int(b.header.KeySize) {
		return nil, metrisca.Errorf(metrisca.InvalidData, "key length %d does not match declared key size %d", len(b.key), b.header.KeySize)
	}

	for i, p := range b.plaintexts {
		if len(p) != int(b.header.PlaintextSize) {
			return nil, metrisca.Errorf(metrisca.InvalidData, "plaintext %d has %d bytes, want %d", i, len(p), b.header.PlaintextSize)
		}
	}

	switch b.header.PlaintextMode {
	case PlaintextModeFixed, PlaintextModeChained:
		if len(b.plaintexts) != 1 {
			return nil, metrisca.Errorf(metrisca.InvalidData, "%v plaintext mode requires exactly one stored plaintext, got %d", b.header.PlaintextMode, len(b.plaintexts))
		}
	case PlaintextModeRandom:
		if len(b.plaintexts) != numTraces {
			return nil, metrisca.Errorf(metrisca.InvalidData, "random plaintext mode requires %d plaintexts, got %d", numTraces, len(b.plaintexts))
		}
	default:
		return nil, metrisca.Errorf(metrisca.InvalidData, "unknown plaintext mode %v", b.header.PlaintextMode)
	}

	header := b.header
	header.NumTraces = uint32(numTraces)
	header.NumSamples = uint32(numSamples)

	samples := matrix.New[int32](numTraces, numSamples)
	for t, trace := range b.traces {
		for s, v := range trace {
			samples.Set(s, t, v)
		}
	}

	plaintextRows, err := b.resolvePlaintextRows(numTraces)
	if err != nil {
		return nil, err
	}

	plaintexts := matrix.New[uint8](int(header.PlaintextSize), len(plaintextRows))
	ciphertexts := matrix.New[uint8](int(header.PlaintextSize), len(plaintextRows))
	for i, p := range plaintextRows {
		_ = plaintexts.SetRow(i, p)
		c, err := Encrypt(header.Algorithm, b.key, p)
		if err != nil {
			return nil, err
		}
		_ = ciphertexts.SetRow(i, c)
	}

	keys := matrix.New[uint8](int(header.KeySize), 1)
	_ = keys.SetRow(0, b.key)

	return &Dataset{
		header:      header,
		samples:     samples,
		plaintexts:  plaintexts,
		keys:        keys,
		ciphertexts: ciphertexts,
	}, nil
}

// resolvePlaintextRows returns the full set of plaintext rows a dataset
// stores: the single row as-is for Fixed, the stored rows as-is for
// Random, or the seed plus NumTraces-1 synthesized rows for Chained.
func (b *Builder) resolvePlaintextRows(numTraces int) ([][]byte, error) {
	switch b.header.PlaintextMode {
	case PlaintextModeFixed:
		return b.plaintexts, nil
	case PlaintextModeRandom:
		return b.plaintexts, nil
	case PlaintextModeChained:
		rows := make([][]byte, numTraces)
		rows[0] = b.plaintexts[0]
		for t := 1; t < numTraces; t++ {
			next, err := Encrypt(b.header.Algorithm, b.key, rows[t-1])
			if err != nil {
				return nil, err
			}
			rows[t] = next
		}
		return rows, nil
	default:
		return nil, metrisca.Errorf(metrisca.InvalidData, "unknown plaintext mode %v", b.header.PlaintextMode)
	}
}
