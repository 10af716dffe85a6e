// SPDX-License-Identifier: MIT

package gate_test

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/matrix"
)

// localKernel returns the textbook 2×2 (or 4×4 for SYC) matrix of kind at
// the full angle list, written independently of the package kernels.
func localKernel(k gate.Kind, a []float64) []complex128 {
	switch k {
	case gate.U3:
		c, s := math.Cos(a[0]/2), math.Sin(a[0]/2)
		return []complex128{
			complex(c, 0), -cmplx.Exp(complex(0, a[2])) * complex(s, 0),
			cmplx.Exp(complex(0, a[1])) * complex(s, 0), cmplx.Exp(complex(0, a[1]+a[2])) * complex(c, 0),
		}
	case gate.RX:
		c, s := math.Cos(a[0]/2), math.Sin(a[0]/2)
		return []complex128{complex(c, 0), complex(0, -s), complex(0, -s), complex(c, 0)}
	case gate.RY, gate.CRY, gate.Adaptive:
		c, s := math.Cos(a[0]/2), math.Sin(a[0]/2)
		return []complex128{complex(c, 0), complex(-s, 0), complex(s, 0), complex(c, 0)}
	case gate.RZ:
		return []complex128{cmplx.Exp(complex(0, -a[0]/2)), 0, 0, cmplx.Exp(complex(0, a[0]/2))}
	case gate.X, gate.CNOT:
		return []complex128{0, 1, 1, 0}
	case gate.Y:
		return []complex128{0, -1i, 1i, 0}
	case gate.Z, gate.CZ:
		return []complex128{1, 0, 0, -1}
	case gate.SX:
		return []complex128{0.5 + 0.5i, 0.5 - 0.5i, 0.5 - 0.5i, 0.5 + 0.5i}
	case gate.CH:
		h := complex(1/math.Sqrt2, 0)
		return []complex128{h, h, h, -h}
	case gate.SYC:
		return []complex128{
			1, 0, 0, 0,
			0, 0, -1i, 0,
			0, -1i, 0, 0,
			0, 0, 0, cmplx.Exp(complex(0, -math.Pi/6)),
		}
	}

	return nil
}

// referenceEmbedding builds the 2^n×2^n matrix of a gate from the basis-state
// definition: bits outside the acted-on qubits must match, controlled kinds
// act as identity when the control bit is 0.
func referenceEmbedding(t *testing.T, g *gate.Gate, angles []float64) *matrix.Dense {
	t.Helper()
	n := g.QubitNum()
	dim := 1 << n
	k := localKernel(g.Kind(), angles)
	ref, err := matrix.NewDense(dim, dim)
	require.NoError(t, err)
	tb := 1 << g.Target()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var v complex128
			switch {
			case g.Kind() == gate.SYC:
				cb := 1 << g.Control()
				if i&^(tb|cb) != j&^(tb|cb) {
					break
				}
				li := (i>>g.Control()&1)<<1 | (i >> g.Target() & 1)
				lj := (j>>g.Control()&1)<<1 | (j >> g.Target() & 1)
				v = k[li*4+lj]
			case g.Control() != gate.NoQubit && i>>g.Control()&1 == 0:
				if i == j {
					v = 1
				}
			default:
				if i&^tb != j&^tb {
					break
				}
				v = k[(i>>g.Target()&1)*2+(j>>g.Target()&1)]
			}
			require.NoError(t, ref.Set(i, j, v))
		}
	}

	return ref
}

func randomGate(t *testing.T, rng *rand.Rand, k gate.Kind, n int) *gate.Gate {
	t.Helper()
	target := rng.Intn(n)
	control := gate.NoQubit
	if k.TwoQubit() {
		control = rng.Intn(n - 1)
		if control >= target {
			control++
		}
	}
	g, err := gate.New(k, n, target, control)
	require.NoError(t, err)

	return g
}

func randomParams(rng *rand.Rand, n int) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = (2*rng.Float64() - 1) * math.Pi
	}

	return p
}

func TestGate_MatrixMatchesReferenceEmbedding(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 1; n <= 6; n++ {
		for _, k := range gate.Kinds() {
			if k.TwoQubit() && n < 2 {
				continue
			}
			g := randomGate(t, rng, k, n)
			params := randomParams(rng, g.ParameterNum())
			angles, err := g.Angles(params)
			require.NoError(t, err)

			got, err := g.Matrix(params)
			require.NoError(t, err)
			require.True(t, matrix.AllClose(got, referenceEmbedding(t, g, angles), 1e-12), "%v on %d qubits", g, n)
		}
	}
}

func TestGate_CNOTThreeQubitEmbedding(t *testing.T) {
	g, err := gate.New(gate.CNOT, 3, 0, 1)
	require.NoError(t, err)
	got, err := g.Matrix(nil)
	require.NoError(t, err)

	want, err := matrix.NewDense(8, 8)
	require.NoError(t, err)
	for j := 0; j < 8; j++ {
		i := j
		if j&2 != 0 {
			i = j ^ 1
		}
		require.NoError(t, want.Set(i, j, 1))
	}
	require.True(t, matrix.AllClose(got, want, 0))
}

func TestGate_ApplyMatchesMatrixProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, k := range gate.Kinds() {
		g := randomGate(t, rng, k, 3)
		params := randomParams(rng, g.ParameterNum())

		m, err := matrix.NewDense(8, 3)
		require.NoError(t, err)
		for i := range m.RawData() {
			m.RawData()[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		}
		full, err := g.Matrix(params)
		require.NoError(t, err)
		want, err := matrix.Mul(full, m)
		require.NoError(t, err)

		require.NoError(t, g.ApplyTo(params, m))
		require.True(t, matrix.AllClose(m, want, 1e-12), "%v", g)
	}
}

func TestGate_AdjointInvertsGate(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, k := range gate.Kinds() {
		g := randomGate(t, rng, k, 2)
		params := randomParams(rng, g.ParameterNum())
		m, err := g.Matrix(params)
		require.NoError(t, err)
		require.NoError(t, g.ApplyAdjointTo(params, m))
		id, _ := matrix.Identity(4)
		require.True(t, matrix.AllClose(m, id, 1e-12), "%v", g)
	}
}

func TestGate_DerivativeMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	const h = 1e-6
	for _, k := range []gate.Kind{gate.U3, gate.RX, gate.RY, gate.RZ, gate.CRY, gate.Adaptive} {
		g := randomGate(t, rng, k, 3)
		params := randomParams(rng, g.ParameterNum())
		for idx := range params {
			d, _ := matrix.Identity(8)
			require.NoError(t, g.ApplyDerivativeTo(params, idx, d))

			plus := append([]float64(nil), params...)
			minus := append([]float64(nil), params...)
			plus[idx] += h
			minus[idx] -= h
			mp, _ := g.Matrix(plus)
			mm, _ := g.Matrix(minus)
			fd, _ := matrix.Sub(mp, mm)
			fd.Scale(complex(1/(2*h), 0))
			require.True(t, matrix.AllClose(d, fd, 1e-8), "%v param %d", g, idx)
		}
	}
}

func TestGate_U3FixedAngles(t *testing.T) {
	g, err := gate.NewU3(1, 0, true, false, true)
	require.NoError(t, err)
	require.Equal(t, 2, g.ParameterNum())

	angles, err := g.Angles([]float64{0.3, 0.7})
	require.NoError(t, err)
	require.Equal(t, []float64{0.3, 0, 0.7}, angles)

	_, err = g.Angles([]float64{1})
	require.ErrorIs(t, err, gate.ErrParameterCount)
}

func TestGate_InvalidConstruction(t *testing.T) {
	cases := []struct {
		name    string
		kind    gate.Kind
		n, t, c int
		want    error
	}{
		{"target beyond register", gate.RX, 2, 2, gate.NoQubit, gate.ErrInvalidQubitIndex},
		{"negative target", gate.RX, 2, -1, gate.NoQubit, gate.ErrInvalidQubitIndex},
		{"control beyond register", gate.CNOT, 3, 0, 3, gate.ErrInvalidQubitIndex},
		{"target equals control", gate.CZ, 3, 1, 1, gate.ErrInvalidQubitIndex},
		{"missing control", gate.CNOT, 2, 0, gate.NoQubit, gate.ErrInvalidKind},
		{"control on single-qubit kind", gate.X, 2, 0, 1, gate.ErrInvalidKind},
		{"unknown kind", gate.Kind(200), 2, 0, gate.NoQubit, gate.ErrInvalidKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gate.New(tc.kind, tc.n, tc.t, tc.c)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range gate.Kinds() {
		got, err := gate.ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
	got, err := gate.ParseKind(" cnot ")
	require.NoError(t, err)
	require.Equal(t, gate.CNOT, got)

	_, err = gate.ParseKind("toffoli")
	require.ErrorIs(t, err, gate.ErrInvalidKind)
}
