// SPDX-License-Identifier: MIT

package matrix_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/qgd/matrix"
)

func TestNewDense_Validation(t *testing.T) {
	_, err := matrix.NewDense(0, 2)
	require.True(t, errors.Is(err, matrix.ErrBadShape))

	_, err = matrix.NewDenseFrom(2, 2, []complex128{1, 2, 3})
	require.True(t, errors.Is(err, matrix.ErrBadShape))

	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	require.Equal(t, 2, m.Rows())
	require.Equal(t, 3, m.Cols())
}

func TestDense_AtSetBounds(t *testing.T) {
	m := MustDense(t, 2, 2, 1, 2i, 3, 4)
	v, err := m.At(0, 1)
	require.NoError(t, err)
	require.Equal(t, complex(0, 2), v)

	require.NoError(t, m.Set(1, 0, 5-1i))
	v, _ = m.At(1, 0)
	require.Equal(t, complex(5, -1), v)

	_, err = m.At(2, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, -1, 0), matrix.ErrOutOfRange)
}

func TestDense_CloneIsDeep(t *testing.T) {
	m := MustDense(t, 1, 2, 1, 2)
	c := m.Clone()
	require.NoError(t, c.Set(0, 0, 9))
	v, _ := m.At(0, 0)
	require.Equal(t, complex(1, 0), v)
}

func TestDense_Columns(t *testing.T) {
	m := MustDense(t, 2, 3, 1, 2, 3, 4, 5, 6)
	c, err := m.Columns(2)
	require.NoError(t, err)
	require.True(t, matrix.AllClose(c, MustDense(t, 2, 2, 1, 2, 4, 5), tol))

	_, err = m.Columns(4)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

func TestLinearAlgebra_Kernels(t *testing.T) {
	a := MustDense(t, 2, 2, 1, 1i, 0, 2)
	b := MustDense(t, 2, 2, 0, 1, 1, 0)

	p, err := matrix.Mul(a, b)
	require.NoError(t, err)
	require.True(t, matrix.AllClose(p, MustDense(t, 2, 2, 1i, 1, 2, 0), tol))

	adj, err := matrix.Adjoint(a)
	require.NoError(t, err)
	require.True(t, matrix.AllClose(adj, MustDense(t, 2, 2, 1, 0, -1i, 2), tol))

	tr, err := matrix.Trace(a)
	require.NoError(t, err)
	require.Equal(t, complex(3, 0), tr)

	_, err = matrix.Mul(a, MustDense(t, 3, 1, 1, 1, 1))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.Trace(MustDense(t, 1, 2, 1, 1))
	require.ErrorIs(t, err, matrix.ErrNonSquare)
}

func TestKron_IdentityBlocks(t *testing.T) {
	x := MustDense(t, 2, 2, 0, 1, 1, 0)
	k, err := matrix.Kron(MustIdentity(t, 2), x)
	require.NoError(t, err)
	want := MustDense(t, 4, 4,
		0, 1, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 1,
		0, 0, 1, 0,
	)
	require.True(t, matrix.AllClose(k, want, tol))
}

func TestIsUnitary(t *testing.T) {
	h := complex(1/math.Sqrt2, 0)
	had := MustDense(t, 2, 2, h, h, h, -h)
	ok, err := matrix.IsUnitary(had, 1e-12)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = matrix.IsUnitary(MustDense(t, 2, 2, 1, 1, 0, 1), 1e-12)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidators(t *testing.T) {
	n, err := matrix.Log2Dim(16)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	_, err = matrix.Log2Dim(12)
	require.ErrorIs(t, err, matrix.ErrNotPowerOfTwo)

	m := MustDense(t, 1, 1, complex(math.NaN(), 0))
	require.ErrorIs(t, matrix.ValidateFinite(m), matrix.ErrNaNInf)
	require.ErrorIs(t, matrix.ValidateNotNil(nil), matrix.ErrNilMatrix)
}
