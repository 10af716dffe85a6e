// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   - Provide small, deterministic fixtures for Dense kernels.
//   - Keep all data finite and well-formed.

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/qgd/matrix"
)

// tol is the element-wise tolerance used for floating comparisons.
const tol = 1e-12

// MustDense builds an r×c *Dense from row-major data or fails the test.
func MustDense(t *testing.T, r, c int, data ...complex128) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, data)
	require.NoError(t, err)

	return m
}

// MustIdentity returns the n×n identity or fails the test.
func MustIdentity(t *testing.T, n int) *matrix.Dense {
	t.Helper()
	m, err := matrix.Identity(n)
	require.NoError(t, err)

	return m
}
