package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/protsplit/internal/mmap"
)

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	Rows int
	Dim  int
	Data []float32
}

// NewMatrix allocates a zeroed rows x dim matrix.
func NewMatrix(rows, dim int) *Matrix {
	return &Matrix{Rows: rows, Dim: dim, Data: make([]float32, rows*dim)}
}

// MatrixFromRows builds a matrix by copying rows. All rows must have the same length.
func MatrixFromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	dim := len(rows[0])
	m := &Matrix{Dim: dim, Data: make([]float32, 0, len(rows)*dim)}
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("row %d has dimension %d, want %d", i, len(r), dim)
		}
		m.Data = append(m.Data, r...)
		m.Rows++
	}
	return m, nil
}

// Row returns row i. The slice aliases the matrix data.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

// Gather returns a new matrix holding the given rows in order.
func (m *Matrix) Gather(idx []int) *Matrix {
	out := &Matrix{Rows: len(idx), Dim: m.Dim, Data: make([]float32, 0, len(idx)*m.Dim)}
	for _, i := range idx {
		out.Data = append(out.Data, m.Row(i)...)
	}
	return out
}

// Concat stacks the rows of ms. Matrices must share a dimension; empty ones
// are skipped.
func Concat(ms ...*Matrix) (*Matrix, error) {
	out := &Matrix{}
	for _, m := range ms {
		if m == nil || m.Rows == 0 {
			continue
		}
		if out.Rows == 0 {
			out.Dim = m.Dim
		} else if m.Dim != out.Dim {
			return nil, fmt.Errorf("cannot concat dimension %d onto %d", m.Dim, out.Dim)
		}
		out.Data = append(out.Data, m.Data...)
		out.Rows += m.Rows
	}
	return out, nil
}

func (m *Matrix) appendRow(r []float32) {
	if m.Rows == 0 {
		m.Dim = len(r)
	}
	m.Data = append(m.Data, r...)
	m.Rows++
}

// ReadMatrix reads a headerless little-endian float32 matrix with dim columns.
func ReadMatrix(r io.Reader, dim int) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decodeMatrix(data, dim)
}

// ReadMatrixFile reads a matrix file in the ReadMatrix format. The file is
// memory-mapped while it is decoded.
func ReadMatrixFile(path string, dim int) (m *Matrix, err error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	mm, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := mm.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_ = mm.Advise(mmap.AccessSequential)
	return decodeMatrix(mm.Bytes(), dim)
}

func decodeMatrix(data []byte, dim int) (*Matrix, error) {
	rowBytes := 4 * dim
	if len(data)%rowBytes != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d-dimensional float32 rows", ErrStructure, len(data), dim)
	}
	m := NewMatrix(len(data)/rowBytes, dim)
	for i := range m.Data {
		m.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return m, nil
}
