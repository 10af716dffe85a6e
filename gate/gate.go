// SPDX-License-Identifier: MIT
// Package gate: primitive gates.
//
// A Gate places a 2×2 kernel (optionally controlled) or, for SYC, a 4×4
// kernel into an n-qubit register. Qubit q is bit q of the basis index, so
// applying a gate touches row pairs (i, i|1<<target) and never materializes
// the 2^n×2^n embedding unless Matrix is asked for it.
//
// Parameters:
//   - U3 owns up to three angles (θ, φ, λ); angles not flagged free are 0.
//   - RX, RY, RZ, CRY and Adaptive own one angle each.
//   - Every other kind is parameter-free.

package gate

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/katalvlaran/qgd/matrix"
)

// NoQubit marks the absent control qubit of a single-qubit gate.
const NoQubit = -1

// kernel2 is a 2×2 matrix in row-major order {k00, k01, k10, k11}.
type kernel2 [4]complex128

// adjoint returns the conjugate transpose of k.
func (k kernel2) adjoint() kernel2 {
	return kernel2{cmplx.Conj(k[0]), cmplx.Conj(k[2]), cmplx.Conj(k[1]), cmplx.Conj(k[3])}
}

var (
	kernelX  = kernel2{0, 1, 1, 0}
	kernelY  = kernel2{0, -1i, 1i, 0}
	kernelZ  = kernel2{1, 0, 0, -1}
	kernelSX = kernel2{complex(0.5, 0.5), complex(0.5, -0.5), complex(0.5, -0.5), complex(0.5, 0.5)}
	kernelH  = kernel2{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0)}

	// sycPhase is the |11⟩ phase of the Sycamore gate, e^{-iπ/6}.
	sycPhase = cmplx.Exp(complex(0, -math.Pi/6))
)

// Gate is a single primitive gate bound to a register of qubitNum qubits.
type Gate struct {
	kind     Kind
	qubitNum int
	target   int
	control  int
	free     [3]bool // U3 only: θ, φ, λ
}

// New creates a gate of the given kind. control must be NoQubit for
// single-qubit kinds and a valid, distinct qubit for two-qubit kinds.
// U3 gates built here have all three angles free.
func New(kind Kind, qubitNum, target, control int) (*Gate, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("New(%v): %w", kind, ErrInvalidKind)
	}
	if qubitNum <= 0 || target < 0 || target >= qubitNum {
		return nil, fmt.Errorf("New(%v): target %d of %d qubits: %w", kind, target, qubitNum, ErrInvalidQubitIndex)
	}
	if kind.TwoQubit() {
		if control == NoQubit {
			return nil, fmt.Errorf("New(%v): missing control: %w", kind, ErrInvalidKind)
		}
		if control < 0 || control >= qubitNum || control == target {
			return nil, fmt.Errorf("New(%v): control %d, target %d of %d qubits: %w", kind, control, target, qubitNum, ErrInvalidQubitIndex)
		}
	} else if control != NoQubit {
		return nil, fmt.Errorf("New(%v): unexpected control %d: %w", kind, control, ErrInvalidKind)
	}

	g := &Gate{kind: kind, qubitNum: qubitNum, target: target, control: control}
	if kind == U3 {
		g.free = [3]bool{true, true, true}
	}

	return g, nil
}

// NewU3 creates a U3 gate whose θ, φ, λ angles are free according to the flags.
func NewU3(qubitNum, target int, theta, phi, lambda bool) (*Gate, error) {
	g, err := New(U3, qubitNum, target, NoQubit)
	if err != nil {
		return nil, err
	}
	g.free = [3]bool{theta, phi, lambda}

	return g, nil
}

// Kind returns the gate kind.
func (g *Gate) Kind() Kind { return g.kind }

// Target returns the target qubit.
func (g *Gate) Target() int { return g.target }

// Control returns the control qubit or NoQubit.
func (g *Gate) Control() int { return g.control }

// QubitNum returns the register size the gate is bound to.
func (g *Gate) QubitNum() int { return g.qubitNum }

// Free returns the U3 free-angle flags (all false for other kinds).
func (g *Gate) Free() [3]bool { return g.free }

// ParameterNum returns the number of free parameters of g.
func (g *Gate) ParameterNum() int {
	switch g.kind {
	case U3:
		n := 0
		for _, f := range g.free {
			if f {
				n++
			}
		}
		return n
	case RX, RY, RZ, CRY, Adaptive:
		return 1
	}

	return 0
}

// Angles expands the free parameters into the full angle list of the kind:
// (θ, φ, λ) for U3 with fixed angles at 0, one angle for rotations, none otherwise.
func (g *Gate) Angles(params []float64) ([]float64, error) {
	if err := g.checkParams(params); err != nil {
		return nil, err
	}
	switch g.kind {
	case U3:
		a := g.u3Angles(params)
		return a[:], nil
	case RX, RY, RZ, CRY, Adaptive:
		return []float64{params[0]}, nil
	}

	return nil, nil
}

func (g *Gate) checkParams(params []float64) error {
	if len(params) != g.ParameterNum() {
		return fmt.Errorf("%v: got %d want %d: %w", g.kind, len(params), g.ParameterNum(), ErrParameterCount)
	}

	return nil
}

func (g *Gate) checkMatrix(m *matrix.Dense) error {
	if m == nil {
		return fmt.Errorf("%v: %w", g.kind, matrix.ErrNilMatrix)
	}
	if m.Rows() != 1<<g.qubitNum {
		return fmt.Errorf("%v: %d rows for %d qubits: %w", g.kind, m.Rows(), g.qubitNum, ErrQubitNumMismatch)
	}

	return nil
}

func (g *Gate) u3Angles(params []float64) [3]float64 {
	var a [3]float64
	p := 0
	for i, f := range g.free {
		if f {
			a[i] = params[p]
			p++
		}
	}

	return a
}

// kernel returns the 2×2 kernel of every kind except SYC.
func (g *Gate) kernel(params []float64) kernel2 {
	switch g.kind {
	case U3:
		a := g.u3Angles(params)
		c, s := math.Cos(a[0]/2), math.Sin(a[0]/2)
		ep, el := cmplx.Exp(complex(0, a[1])), cmplx.Exp(complex(0, a[2]))
		return kernel2{complex(c, 0), -el * complex(s, 0), ep * complex(s, 0), ep * el * complex(c, 0)}
	case RX:
		c, s := math.Cos(params[0]/2), math.Sin(params[0]/2)
		return kernel2{complex(c, 0), complex(0, -s), complex(0, -s), complex(c, 0)}
	case RY, CRY, Adaptive:
		c, s := math.Cos(params[0]/2), math.Sin(params[0]/2)
		return kernel2{complex(c, 0), complex(-s, 0), complex(s, 0), complex(c, 0)}
	case RZ:
		return kernel2{cmplx.Exp(complex(0, -params[0]/2)), 0, 0, cmplx.Exp(complex(0, params[0]/2))}
	case X, CNOT:
		return kernelX
	case Y:
		return kernelY
	case Z, CZ:
		return kernelZ
	case SX:
		return kernelSX
	case CH:
		return kernelH
	}

	return kernel2{1, 0, 0, 1}
}

// derivative returns ∂kernel/∂p_idx where idx counts free parameters only.
func (g *Gate) derivative(params []float64, idx int) kernel2 {
	switch g.kind {
	case U3:
		a := g.u3Angles(params)
		c, s := math.Cos(a[0]/2), math.Sin(a[0]/2)
		ep, el := cmplx.Exp(complex(0, a[1])), cmplx.Exp(complex(0, a[2]))
		which := -1
		for i, p := 0, 0; i < 3; i++ {
			if g.free[i] {
				if p == idx {
					which = i
					break
				}
				p++
			}
		}
		switch which {
		case 0:
			return kernel2{complex(-s/2, 0), -el * complex(c/2, 0), ep * complex(c/2, 0), -ep * el * complex(s/2, 0)}
		case 1:
			return kernel2{0, 0, 1i * ep * complex(s, 0), 1i * ep * el * complex(c, 0)}
		case 2:
			return kernel2{0, -1i * el * complex(s, 0), 0, 1i * ep * el * complex(c, 0)}
		}
	case RX:
		c, s := math.Cos(params[0]/2), math.Sin(params[0]/2)
		return kernel2{complex(-s/2, 0), complex(0, -c/2), complex(0, -c/2), complex(-s/2, 0)}
	case RY, CRY, Adaptive:
		c, s := math.Cos(params[0]/2), math.Sin(params[0]/2)
		return kernel2{complex(-s/2, 0), complex(-c/2, 0), complex(c/2, 0), complex(-s/2, 0)}
	case RZ:
		return kernel2{complex(0, -0.5) * cmplx.Exp(complex(0, -params[0]/2)), 0, 0, complex(0, 0.5) * cmplx.Exp(complex(0, params[0]/2))}
	}

	return kernel2{}
}

// applyKernel left-multiplies the dim×cols row-major data by the embedded
// kernel. With derivative set, rows outside the control=1 subspace are zeroed
// since the derivative of the identity block vanishes.
func (g *Gate) applyKernel(data []complex128, cols int, k kernel2, derivative bool) {
	dim := len(data) / cols
	tb := 1 << g.target
	cb := 0
	if g.control != NoQubit {
		cb = 1 << g.control
	}
	for i := 0; i < dim; i++ {
		if i&tb != 0 {
			continue
		}
		j := i | tb
		ri := data[i*cols : (i+1)*cols]
		rj := data[j*cols : (j+1)*cols]
		if cb != 0 && i&cb == 0 {
			if derivative {
				clear(ri)
				clear(rj)
			}
			continue
		}
		for c := range ri {
			a, b := ri[c], rj[c]
			ri[c] = k[0]*a + k[1]*b
			rj[c] = k[2]*a + k[3]*b
		}
	}
}

// applySYC applies fSim(π/2, π/6) on (target, control); the kernel is
// symmetric in the two qubits.
func (g *Gate) applySYC(data []complex128, cols int, adjoint bool) {
	dim := len(data) / cols
	tb, cb := 1<<g.target, 1<<g.control
	swap, phase := complex(0, -1), sycPhase
	if adjoint {
		swap, phase = complex(0, 1), cmplx.Conj(sycPhase)
	}
	for i := 0; i < dim; i++ {
		if i&tb != 0 || i&cb != 0 {
			continue
		}
		r01 := data[(i|tb)*cols : ((i|tb)+1)*cols]
		r10 := data[(i|cb)*cols : ((i|cb)+1)*cols]
		r11 := data[(i|tb|cb)*cols : ((i|tb|cb)+1)*cols]
		for c := range r01 {
			a, b := r01[c], r10[c]
			r01[c] = swap * b
			r10[c] = swap * a
			r11[c] *= phase
		}
	}
}

// ApplyTo left-multiplies m (2^n rows, any column count) by the gate.
func (g *Gate) ApplyTo(params []float64, m *matrix.Dense) error {
	if err := g.checkParams(params); err != nil {
		return err
	}
	if err := g.checkMatrix(m); err != nil {
		return err
	}
	if g.kind == SYC {
		g.applySYC(m.RawData(), m.Cols(), false)
		return nil
	}
	g.applyKernel(m.RawData(), m.Cols(), g.kernel(params), false)

	return nil
}

// ApplyAdjointTo left-multiplies m by the conjugate transpose of the gate.
func (g *Gate) ApplyAdjointTo(params []float64, m *matrix.Dense) error {
	if err := g.checkParams(params); err != nil {
		return err
	}
	if err := g.checkMatrix(m); err != nil {
		return err
	}
	if g.kind == SYC {
		g.applySYC(m.RawData(), m.Cols(), true)
		return nil
	}
	g.applyKernel(m.RawData(), m.Cols(), g.kernel(params).adjoint(), false)

	return nil
}

// ApplyDerivativeTo left-multiplies m by ∂G/∂p_idx, idx counting the
// gate's own free parameters.
func (g *Gate) ApplyDerivativeTo(params []float64, idx int, m *matrix.Dense) error {
	if err := g.checkParams(params); err != nil {
		return err
	}
	if idx < 0 || idx >= len(params) {
		return fmt.Errorf("%v: derivative %d of %d: %w", g.kind, idx, len(params), ErrParameterCount)
	}
	if err := g.checkMatrix(m); err != nil {
		return err
	}
	g.applyKernel(m.RawData(), m.Cols(), g.derivative(params, idx), true)

	return nil
}

// Matrix returns the full 2^n×2^n embedding of the gate.
func (g *Gate) Matrix(params []float64) (*matrix.Dense, error) {
	m, err := matrix.Identity(1 << g.qubitNum)
	if err != nil {
		return nil, err
	}
	if err = g.ApplyTo(params, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Clone returns an independent copy of g.
func (g *Gate) Clone() *Gate {
	c := *g
	return &c
}

// String renders the gate as KIND(target[,control]).
func (g *Gate) String() string {
	if g.control == NoQubit {
		return fmt.Sprintf("%v(%d)", g.kind, g.target)
	}

	return fmt.Sprintf("%v(%d,%d)", g.kind, g.target, g.control)
}

// Node plumbing; a Gate is a leaf of the block tree.

func (g *Gate) cloneNode() Node { return g.Clone() }

func (g *Gate) reorder(perm []int) {
	g.target = perm[g.target]
	if g.control != NoQubit {
		g.control = perm[g.control]
	}
}

func (g *Gate) flatten(offset int, out []Element) []Element {
	return append(out, Element{Gate: g, Offset: offset})
}
