// Package matrix implements the dense 2-D array used throughout the
// analysis core: row-major storage, row views, submatrix extraction, and a
// binary save/load format with a fixed magic header. Grounded on
// metrisca/core/matrix.hpp from the MetriSCA original and on the row-major
// mat.Dense usage in the teacher's capture.go (SamplesMatrix).
package matrix

import (
	"encoding/binary"
	"io"
	"os"
	"unsafe"

	"github.com/newae-go/metrisca"
)

// fileMagic is the matrix file magic value from spec.md §6.
const fileMagic uint64 = 0x726564616568746d

// Numeric is the set of element types a Matrix may hold.
type Numeric interface {
	~int32 | ~uint8 | ~float64
}

// Matrix is a dense, row-major array of Width x Height elements of type T.
// Row views returned by Row are read-only borrows into the backing slice;
// writes go through SetRow, which validates the row length.
type Matrix[T Numeric] struct {
	width, height int
	data          []T
}

// New allocates a zero-valued width x height matrix.
func New[T Numeric](width, height int) *Matrix[T] {
	return &Matrix[T]{width: width, height: height, data: make([]T, width*height)}
}

// FromRowMajor wraps an existing row-major slice without copying; len(data)
// must equal width*height.
func FromRowMajor[T Numeric](width, height int, data []T) *Matrix[T] {
	if len(data) != width*height {
		panic("matrix: data length does not match width*height")
	}
	return &Matrix[T]{width: width, height: height, data: data}
}

func (m *Matrix[T]) Width() int  { return m.width }
func (m *Matrix[T]) Height() int { return m.height }

// Data returns the raw backing slice. Mutating it mutates the matrix.
func (m *Matrix[T]) Data() []T { return m.data }

// At returns the element at (row, col).
func (m *Matrix[T]) At(row, col int) T {
	return m.data[row*m.width+col]
}

// Set assigns the element at (row, col).
func (m *Matrix[T]) Set(row, col int, value T) {
	m.data[row*m.width+col] = value
}

// Row returns a read-only view of row r. The returned slice aliases the
// backing storage and must not be mutated by the caller.
func (m *Matrix[T]) Row(r int) []T {
	return m.data[r*m.width : (r+1)*m.width]
}

// SetRow copies row into row index r, checking the length matches.
func (m *Matrix[T]) SetRow(r int, row []T) error {
	if len(row) != m.width {
		return metrisca.Errorf(metrisca.InvalidArgument, "SetRow: row length %d does not match width %d", len(row), m.width)
	}
	copy(m.data[r*m.width:(r+1)*m.width], row)
	return nil
}

// FillRow sets every element of row r to value.
func (m *Matrix[T]) FillRow(r int, value T) {
	row := m.data[r*m.width : (r+1)*m.width]
	for i := range row {
		row[i] = value
	}
}

// Copy returns a deep copy of the matrix.
func (m *Matrix[T]) Copy() *Matrix[T] {
	out := New[T](m.width, m.height)
	copy(out.data, m.data)
	return out
}

// Submatrix extracts rows [rowStart, rowEnd) and columns [colStart, colEnd).
// Bounds are half-open; rowEnd/colEnd are exclusive.
func (m *Matrix[T]) Submatrix(rowStart, colStart, rowEnd, colEnd int) *Matrix[T] {
	if rowStart < 0 || rowEnd > m.height || rowStart >= rowEnd {
		panic("matrix: invalid row range in Submatrix")
	}
	if colStart < 0 || colEnd > m.width || colStart >= colEnd {
		panic("matrix: invalid col range in Submatrix")
	}
	out := New[T](colEnd-colStart, rowEnd-rowStart)
	for r := 0; r < out.height; r++ {
		src := m.Row(rowStart + r)[colStart:colEnd]
		_ = out.SetRow(r, src)
	}
	return out
}

// matrixFileHeader mirrors MatrixFileHeader in matrix.hpp.
type matrixFileHeader struct {
	Magic    uint64
	ElemSize uint64
	Width    uint64
	Height   uint64
}

// Save writes the matrix to filename using the fixed magic/elem-size/width/
// height header described in spec.md §6, followed by the raw row-major
// bytes.
func (m *Matrix[T]) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "creating matrix file", err)
	}
	defer f.Close()
	return m.SaveTo(f)
}

func (m *Matrix[T]) SaveTo(w io.Writer) error {
	var zero T
	header := matrixFileHeader{
		Magic:    fileMagic,
		ElemSize: uint64(unsafe.Sizeof(zero)),
		Width:    uint64(m.width),
		Height:   uint64(m.height),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "writing matrix header", err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.data); err != nil {
		return metrisca.Wrap(metrisca.IoFailure, "writing matrix body", err)
	}
	return nil
}

// Load reads a matrix previously written by Save. It rejects the file with
// InvalidHeader on magic mismatch and InvalidDataType on element-size
// mismatch, per spec.md §6.
func Load[T Numeric](filename string) (*Matrix[T], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, metrisca.Wrap(metrisca.FileNotFound, "opening matrix file", err)
	}
	defer f.Close()
	return LoadFrom[T](f)
}

func LoadFrom[T Numeric](r io.Reader) (*Matrix[T], error) {
	var header matrixFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, metrisca.Wrap(metrisca.IoFailure, "reading matrix header", err)
	}
	if header.Magic != fileMagic {
		return nil, metrisca.NewError(metrisca.InvalidHeader)
	}
	var zero T
	if header.ElemSize != uint64(unsafe.Sizeof(zero)) {
		return nil, metrisca.NewError(metrisca.InvalidDataType)
	}
	m := New[T](int(header.Width), int(header.Height))
	if err := binary.Read(r, binary.LittleEndian, m.data); err != nil {
		return nil, metrisca.Wrap(metrisca.IoFailure, "reading matrix body", err)
	}
	return m, nil
}
