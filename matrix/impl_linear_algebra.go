// SPDX-License-Identifier: MIT
// Package matrix provides the linear-algebra kernels on Dense: products,
// adjoints, traces, Kronecker products and tolerance comparisons. All
// functions perform strict fail-fast validation and return clear errors on
// dimension mismatches.
//
// Notes:
//   - Kernels never mutate their inputs; results are freshly allocated.
//   - Errors are plain sentinels wrapped via matrixErrorf with an op tag.

package matrix

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Operation name constants for unified error wrapping.
const (
	opSub     = "Sub"
	opMul     = "Mul"
	opAdjoint = "Adjoint"
	opTrace   = "Trace"
	opKron    = "Kron"
	opClose   = "AllClose"
	opUnitary = "IsUnitary"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Mul returns the product a×b.
//
// Implementation:
//   - Stage 1: validate a.Cols == b.Rows.
//   - Stage 2: i-k-j loop order so the inner loop streams rows of b.
//
// Complexity: O(r·k·c).
func Mul(a, b *Dense) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	out := &Dense{r: a.r, c: b.c, data: make([]complex128, a.r*b.c)}
	for i := 0; i < a.r; i++ {
		row := out.data[i*b.c : (i+1)*b.c]
		for k := 0; k < a.c; k++ {
			aik := a.data[i*a.c+k]
			if aik == 0 {
				continue
			}
			bk := b.data[k*b.c : (k+1)*b.c]
			for j, v := range bk {
				row[j] += aik * v
			}
		}
	}

	return out, nil
}

// Adjoint returns the conjugate transpose of m.
// Complexity: O(r·c).
func Adjoint(m *Dense) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opAdjoint, err)
	}
	out := &Dense{r: m.c, c: m.r, data: make([]complex128, len(m.data))}
	for i := 0; i < m.r; i++ {
		for j := 0; j < m.c; j++ {
			out.data[j*m.r+i] = cmplx.Conj(m.data[i*m.c+j])
		}
	}

	return out, nil
}

// Trace returns Σ m[i,i] over a square matrix.
func Trace(m *Dense) (complex128, error) {
	if err := ValidateSquare(m); err != nil {
		return 0, matrixErrorf(opTrace, err)
	}
	var t complex128
	for i := 0; i < m.r; i++ {
		t += m.data[i*m.c+i]
	}

	return t, nil
}

// Sub returns a−b.
func Sub(a, b *Dense) (*Dense, error) {
	if a == nil || b == nil {
		return nil, matrixErrorf(opSub, ErrNilMatrix)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return nil, matrixErrorf(opSub, err)
	}
	out := a.Clone()
	for i, v := range b.data {
		out.data[i] -= v
	}

	return out, nil
}

// Kron returns the Kronecker product a⊗b.
// Complexity: O(ra·ca·rb·cb).
func Kron(a, b *Dense) (*Dense, error) {
	if a == nil || b == nil {
		return nil, matrixErrorf(opKron, ErrNilMatrix)
	}
	rows, cols := a.r*b.r, a.c*b.c
	out := &Dense{r: rows, c: cols, data: make([]complex128, rows*cols)}
	for i := 0; i < a.r; i++ {
		for j := 0; j < a.c; j++ {
			aij := a.data[i*a.c+j]
			for k := 0; k < b.r; k++ {
				for l := 0; l < b.c; l++ {
					out.data[(i*b.r+k)*cols+j*b.c+l] = aij * b.data[k*b.c+l]
				}
			}
		}
	}

	return out, nil
}

// FrobeniusNorm returns sqrt(Σ|m_ij|²).
func FrobeniusNorm(m *Dense) float64 {
	var s float64
	for _, v := range m.data {
		s += real(v)*real(v) + imag(v)*imag(v)
	}

	return math.Sqrt(s)
}

// MaxAbsDiff returns max |a_ij − b_ij|.
func MaxAbsDiff(a, b *Dense) (float64, error) {
	if a == nil || b == nil {
		return 0, matrixErrorf(opClose, ErrNilMatrix)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return 0, matrixErrorf(opClose, err)
	}
	var worst float64
	for i, v := range a.data {
		if d := cmplx.Abs(v - b.data[i]); d > worst {
			worst = d
		}
	}

	return worst, nil
}

// AllClose reports whether a and b agree element-wise within tol.
// Shape mismatch or nil operands report false.
func AllClose(a, b *Dense, tol float64) bool {
	d, err := MaxAbsDiff(a, b)
	if err != nil {
		return false
	}

	return d <= tol
}

// IsUnitary reports whether m†m equals the identity within tol.
// Rectangular m (more rows than columns) is accepted as an isometry check.
func IsUnitary(m *Dense, tol float64) (bool, error) {
	if err := ValidateNotNil(m); err != nil {
		return false, matrixErrorf(opUnitary, err)
	}
	adj, err := Adjoint(m)
	if err != nil {
		return false, matrixErrorf(opUnitary, err)
	}
	prod, err := Mul(adj, m)
	if err != nil {
		return false, matrixErrorf(opUnitary, err)
	}
	id, err := Identity(m.c)
	if err != nil {
		return false, matrixErrorf(opUnitary, err)
	}

	return AllClose(prod, id, tol), nil
}
