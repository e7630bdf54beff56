package dataset

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/matrix"
)

// fileMagic is the dataset file magic value from spec.md §6.
const fileMagic uint64 = 0x7265646165687364

// fileHeader mirrors the packed on-disk header.
type fileHeader struct {
	Magic             uint64
	TimeResolution    float64
	CurrentResolution float64
	NumTraces         uint32
	NumSamples        uint32
	Algorithm         uint32
	PlaintextMode     uint32
	PlaintextSize     uint32
	KeyMode           uint32
	KeySize           uint32
}

// Save writes the dataset to filename using the binary format in spec.md
// §6: a fixed-magic header, followed by plaintexts, the key, then the
// trace samples.
func (d *Dataset) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "creating dataset file", err)
	}
	defer f.Close()
	return d.SaveTo(f)
}

func (d *Dataset) SaveTo(w io.Writer) error {
	header := fileHeader{
		Magic:             fileMagic,
		TimeResolution:    d.header.TimeResolution,
		CurrentResolution: d.header.CurrentResolution,
		NumTraces:         d.header.NumTraces,
		NumSamples:        d.header.NumSamples,
		Algorithm:         uint32(d.header.Algorithm),
		PlaintextMode:     uint32(d.header.PlaintextMode),
		PlaintextSize:     d.header.PlaintextSize,
		KeyMode:           uint32(d.header.KeyMode),
		KeySize:           d.header.KeySize,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "writing dataset header", err)
	}
	// Chained plaintexts are a pure function of the seed and the key, per
	// spec.md §6: only the seed row is persisted, not the full in-memory
	// synthesized chain resolvePlaintextRows expands them into.
	storedPlaintexts := d.plaintexts.Data()
	if d.header.PlaintextMode == PlaintextModeChained {
		storedPlaintexts = d.plaintexts.Row(0)
	}
	if err := binary.Write(w, binary.LittleEndian, storedPlaintexts); err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "writing dataset plaintexts", err)
	}
	if err := binary.Write(w, binary.LittleEndian, d.keys.Data()); err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "writing dataset key", err)
	}
	if err := binary.Write(w, binary.LittleEndian, d.samples.Data()); err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "writing dataset samples", err)
	}
	return nil
}

// Load reads a dataset previously written by Save. It rejects the file
// with InvalidHeader on magic mismatch. Ciphertexts are re-derived from
// the loaded plaintexts and key rather than persisted, since they are a
// pure function of the two.
func Load(filename string) (*Dataset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, metrisca.Wrap(metrisca.FileNotFound, "opening dataset file", err)
	}
	defer f.Close()
	return LoadFrom(f)
}

func LoadFrom(r io.Reader) (*Dataset, error) {
	var header fileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, metrisca.Wrap(metrisca.IoFailure, "reading dataset header", err)
	}
	if header.Magic != fileMagic {
		return nil, metrisca.NewError(metrisca.InvalidHeader)
	}

	mode := PlaintextMode(header.PlaintextMode)
	// Stored row count per spec.md §6: 1 for Fixed, NumTraces for Random,
	// 1 (the seed) for Chained — the chain itself is resynthesized below.
	storedRows := 1
	if mode == PlaintextModeRandom {
		storedRows = int(header.NumTraces)
	}

	stored := matrix.New[uint8](int(header.PlaintextSize), storedRows)
	if err := binary.Read(r, binary.LittleEndian, stored.Data()); err != nil {
		return nil, metrisca.Wrap(metrisca.IoFailure, "reading dataset plaintexts", err)
	}

	keys := matrix.New[uint8](int(header.KeySize), 1)
	if err := binary.Read(r, binary.LittleEndian, keys.Data()); err != nil {
		return nil, metrisca.Wrap(metrisca.IoFailure, "reading dataset key", err)
	}

	samples := matrix.New[int32](int(header.NumTraces), int(header.NumSamples))
	if err := binary.Read(r, binary.LittleEndian, samples.Data()); err != nil {
		return nil, metrisca.Wrap(metrisca.IoFailure, "reading dataset samples", err)
	}

	algo := Algorithm(header.Algorithm)

	plaintextRows := storedRows
	plaintexts := stored
	if mode == PlaintextModeChained {
		plaintextRows = int(header.NumTraces)
		plaintexts = matrix.New[uint8](int(header.PlaintextSize), plaintextRows)
		_ = plaintexts.SetRow(0, stored.Row(0))
		for t := 1; t < plaintextRows; t++ {
			next, err := Encrypt(algo, keys.Row(0), plaintexts.Row(t-1))
			if err != nil {
				return nil, err
			}
			_ = plaintexts.SetRow(t, next)
		}
	}

	ciphertexts := matrix.New[uint8](int(header.PlaintextSize), plaintextRows)
	for i := 0; i < plaintextRows; i++ {
		c, err := Encrypt(algo, keys.Row(0), plaintexts.Row(i))
		if err != nil {
			return nil, err
		}
		_ = ciphertexts.SetRow(i, c)
	}

	return &Dataset{
		header: Header{
			TimeResolution:    header.TimeResolution,
			CurrentResolution: header.CurrentResolution,
			NumTraces:         header.NumTraces,
			NumSamples:        header.NumSamples,
			Algorithm:         algo,
			PlaintextMode:     mode,
			PlaintextSize:     header.PlaintextSize,
			KeyMode:           KeyMode(header.KeyMode),
			KeySize:           header.KeySize,
		},
		samples:     samples,
		plaintexts:  plaintexts,
		keys:        keys,
		ciphertexts: ciphertexts,
	}, nil
}
