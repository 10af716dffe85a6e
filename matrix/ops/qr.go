// Package ops provides advanced matrix operations for the qgd/matrix package.
// QR computes the QR decomposition of a square complex matrix using
// Householder reflections, returning unitary Q and upper-triangular R such
// that m = Q×R. RandomUnitary builds Haar-distributed unitaries on top of it.
package ops

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/katalvlaran/qgd/matrix"
)

// QR returns Q and R for the decomposition m = Q×R.
// It returns ErrNonSquare if m is not square.
// Complexity: O(n³) time, O(n²) memory where n = m.Rows().
func QR(m *matrix.Dense) (*matrix.Dense, *matrix.Dense, error) {
	// Stage 1: Validate input dimensions
	if err := matrix.ValidateSquare(m); err != nil {
		return nil, nil, fmt.Errorf("QR: %w", err)
	}
	n := m.Rows()

	// Stage 2: Prepare working copies; Qh accumulates H_{n-1}…H_0 = Q†
	A := m.Clone()
	Qh, err := matrix.Identity(n)
	if err != nil {
		return nil, nil, fmt.Errorf("QR: %w", err)
	}
	a := A.RawData()
	q := Qh.RawData()
	v := make([]complex128, n)

	// Stage 3: Execute Householder reflections
	for k := 0; k < n-1; k++ {
		// 3.1: norm of A[k:n][k]
		var norm float64
		for i := k; i < n; i++ {
			x := a[i*n+k]
			norm += real(x)*real(x) + imag(x)*imag(x)
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		// 3.2: alpha = -e^{i·arg(pivot)}·‖x‖ avoids cancellation
		pivot := a[k*n+k]
		phase := complex(1, 0)
		if pivot != 0 {
			phase = pivot / complex(cmplx.Abs(pivot), 0)
		}
		alpha := -phase * complex(norm, 0)
		// 3.3: v = x − alpha·e_k, beta = v†v
		for i := range v {
			v[i] = 0
		}
		var beta float64
		for i := k; i < n; i++ {
			v[i] = a[i*n+k]
		}
		v[k] -= alpha
		for i := k; i < n; i++ {
			beta += real(v[i])*real(v[i]) + imag(v[i])*imag(v[i])
		}
		if beta == 0 {
			continue
		}
		tau := complex(2/beta, 0)
		// 3.4: apply H = I − tau·v·v† to A and Qh from the left
		reflect(a, n, k, v, tau)
		reflect(q, n, k, v, tau)
	}

	// Stage 4: Q = Qh†, R = A
	Q, err := matrix.Adjoint(Qh)
	if err != nil {
		return nil, nil, fmt.Errorf("QR: %w", err)
	}
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			a[i*n+j] = 0
		}
	}

	return Q, A, nil
}

// reflect applies I − tau·v·v† (v supported on rows k..n-1) to every column.
func reflect(data []complex128, n, k int, v []complex128, tau complex128) {
	for j := 0; j < n; j++ {
		var s complex128
		for i := k; i < n; i++ {
			s += cmplx.Conj(v[i]) * data[i*n+j]
		}
		if s == 0 {
			continue
		}
		s *= tau
		for i := k; i < n; i++ {
			data[i*n+j] -= v[i] * s
		}
	}
}

// RandomUnitary samples a dim×dim unitary from the Haar measure.
//
// Implementation:
//   - Stage 1: draw a Ginibre matrix Z with i.i.d. standard complex normals.
//   - Stage 2: Z = Q·R via Householder.
//   - Stage 3: return Q·Λ with Λ = diag(R_jj/|R_jj|), which removes the
//     phase bias of the factorization.
//
// The result depends only on rng's stream, so a fixed seed reproduces it.
func RandomUnitary(dim int, rng *rand.Rand) (*matrix.Dense, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	Z, err := matrix.NewDense(dim, dim)
	if err != nil {
		return nil, fmt.Errorf("RandomUnitary: %w", err)
	}
	z := Z.RawData()
	for i := range z {
		z[i] = complex(rng.NormFloat64(), rng.NormFloat64()) / complex(math.Sqrt2, 0)
	}
	Q, R, err := QR(Z)
	if err != nil {
		return nil, fmt.Errorf("RandomUnitary: %w", err)
	}
	q, r := Q.RawData(), R.RawData()
	for j := 0; j < dim; j++ {
		d := r[j*dim+j]
		if d == 0 {
			return nil, fmt.Errorf("RandomUnitary: %w", matrix.ErrSingular)
		}
		ph := d / complex(cmplx.Abs(d), 0)
		for i := 0; i < dim; i++ {
			q[i*dim+j] *= ph
		}
	}

	return Q, nil
}

// RandomState samples a Haar-random normalized state of length dim as a
// dim×1 matrix.
func RandomState(dim int, rng *rand.Rand) (*matrix.Dense, error) {
	U, err := RandomUnitary(dim, rng)
	if err != nil {
		return nil, err
	}

	return U.Columns(1)
}
