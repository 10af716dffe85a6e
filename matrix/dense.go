// SPDX-License-Identifier: MIT
// Package matrix provides core linear algebra primitives for array-based computations.
// Dense is a concrete, row-major complex matrix, storing elements in a flat
// slice for performance and cache friendliness.
package matrix

import (
	"fmt"
	"strings"
)

// denseErrorf wraps an underlying error with Dense method context.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a row-major matrix of complex128 values.
// r is rows, c is columns, and data holds r*c elements in row-major order.
type Dense struct {
	r, c int          // number of rows and columns
	data []complex128 // flat backing storage, length == r*c
}

// NewDense creates an r×c Dense matrix initialized to zeros.
// Stage 1 (Validate): ensure rows and cols > 0.
// Stage 2 (Prepare): allocate flat backing slice.
// Complexity: O(r*c) time and memory.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("NewDense(%d,%d): %w", rows, cols, ErrBadShape)
	}

	return &Dense{r: rows, c: cols, data: make([]complex128, rows*cols)}, nil
}

// NewDenseFrom creates an r×c Dense holding a copy of data (row-major).
// Returns ErrBadShape when len(data) != rows*cols.
// Complexity: O(r*c).
func NewDenseFrom(rows, cols int, data []complex128) (*Dense, error) {
	m, err := NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("NewDenseFrom: %d elements for %dx%d: %w", len(data), rows, cols, ErrBadShape)
	}
	copy(m.data, data)

	return m, nil
}

// Identity returns the n×n identity matrix.
// Complexity: O(n²).
func Identity(n int) (*Dense, error) {
	m, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}

	return m, nil
}

// Rows returns the number of rows in the matrix.
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns in the matrix.
func (m *Dense) Cols() int { return m.c }

// indexOf computes the flat index for (row, col) or returns ErrOutOfRange.
func (m *Dense) indexOf(method string, row, col int) (int, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, denseErrorf(method, row, col, ErrOutOfRange)
	}

	return row*m.c + col, nil
}

// At retrieves the element at (row, col).
// Complexity: O(1).
func (m *Dense) At(row, col int) (complex128, error) {
	idx, err := m.indexOf("At", row, col)
	if err != nil {
		return 0, err
	}

	return m.data[idx], nil
}

// Set assigns value v at (row, col).
// Complexity: O(1).
func (m *Dense) Set(row, col int, v complex128) error {
	idx, err := m.indexOf("Set", row, col)
	if err != nil {
		return err
	}
	m.data[idx] = v

	return nil
}

// RawData exposes the row-major backing slice. Writes are visible through m.
// Gate kernels use it to update row pairs without per-element bounds checks.
func (m *Dense) RawData() []complex128 { return m.data }

// Clone returns a deep copy of the Dense matrix.
// Complexity: O(r*c) time and memory.
func (m *Dense) Clone() *Dense {
	data := make([]complex128, len(m.data))
	copy(data, m.data)

	return &Dense{r: m.r, c: m.c, data: data}
}

// CopyFrom overwrites m with the contents of src; shapes must match.
func (m *Dense) CopyFrom(src *Dense) error {
	if src == nil {
		return fmt.Errorf("Dense.CopyFrom: %w", ErrNilMatrix)
	}
	if m.r != src.r || m.c != src.c {
		return fmt.Errorf("Dense.CopyFrom: %w", ErrDimensionMismatch)
	}
	copy(m.data, src.data)

	return nil
}

// Columns returns a new rows×k matrix holding the first k columns of m.
// Used to carve state-preparation targets out of a full unitary.
func (m *Dense) Columns(k int) (*Dense, error) {
	if k <= 0 || k > m.c {
		return nil, fmt.Errorf("Dense.Columns(%d): %w", k, ErrOutOfRange)
	}
	out := &Dense{r: m.r, c: k, data: make([]complex128, m.r*k)}
	for i := 0; i < m.r; i++ {
		copy(out.data[i*k:(i+1)*k], m.data[i*m.c:i*m.c+k])
	}

	return out, nil
}

// Scale multiplies every element by s in place.
func (m *Dense) Scale(s complex128) {
	for i := range m.data {
		m.data[i] *= s
	}
}

// String implements fmt.Stringer for easy debugging.
func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.r; i++ {
		sb.WriteByte('[')
		for j := 0; j < m.c; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			v := m.data[i*m.c+j]
			fmt.Fprintf(&sb, "%.4f%+.4fi", real(v), imag(v))
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}
