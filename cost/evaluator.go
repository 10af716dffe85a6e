// SPDX-License-Identifier: MIT
// Package cost: evaluator.
//
// For a target U (2^n×m, m ≤ 2^n) and a structure V(θ) the evaluator forms
// A = V(θ)†·U by applying gate adjoints last-to-first onto a copy of U, and
// scores the shifted diagonal x_j = A[j+d, j]. The ideal A is a global phase
// times the shifted identity, so every variant is 0 at a perfect match.
//
// Gradient (adjoint method):
//   - G = ∂f/∂Ā is non-zero only on the shifted diagonal.
//   - With V = L_g·G_g·R_g around gate g, B_g = R_g·G and C_g = L_g†·U,
//     ∂f/∂θ = 2·Re Σ conj(C_g)∘(G_g'·B_g).
//   - B_g and C_g are built by one sweep each; per-gate components are then
//     independent and fan out over an errgroup. Each worker writes its own
//     slots, so the gradient is identical for any worker count.

package cost

import (
	"fmt"
	"math"
	"math/cmplx"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/matrix"
)

// phaseFloor is the modulus below which A[d,0] is treated as carrying no phase.
const phaseFloor = 1e-300

// Evaluator scores a fixed structure against a fixed target.
// It snapshots the flattened structure at construction; rebuild it after
// mutating the block. Safe for concurrent use.
type Evaluator struct {
	target *matrix.Dense
	elems  []gate.Element
	params int
	opts   Options
}

// NewEvaluator validates shapes and binds target and structure.
func NewEvaluator(target *matrix.Dense, block *gate.Block, opts ...Option) (*Evaluator, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if target == nil || block == nil {
		return nil, fmt.Errorf("NewEvaluator: %w", matrix.ErrNilMatrix)
	}
	dim := 1 << block.QubitNum()
	if target.Rows() != dim {
		return nil, fmt.Errorf("NewEvaluator: %d rows for %d qubits: %w", target.Rows(), block.QubitNum(), ErrDimensionMismatch)
	}
	if target.Cols()+o.TraceOffset > dim {
		return nil, fmt.Errorf("NewEvaluator: %d columns at trace offset %d exceed %d rows: %w",
			target.Cols(), o.TraceOffset, dim, ErrDimensionMismatch)
	}

	return &Evaluator{
		target: target.Clone(),
		elems:  block.Flatten(),
		params: block.ParameterNum(),
		opts:   o,
	}, nil
}

// ParameterNum returns the length of the parameter vector.
func (e *Evaluator) ParameterNum() int { return e.params }

// Options returns the evaluator configuration.
func (e *Evaluator) Options() Options { return e.opts }

// Product returns A = V(params)†·U.
func (e *Evaluator) Product(params []float64) (*matrix.Dense, error) {
	if len(params) != e.params {
		return nil, fmt.Errorf("Product: got %d want %d: %w", len(params), e.params, ErrParameterCount)
	}
	A := e.target.Clone()
	for g := len(e.elems) - 1; g >= 0; g-- {
		el := e.elems[g]
		if err := el.Gate.ApplyAdjointTo(el.Params(params), A); err != nil {
			return nil, err
		}
	}

	return A, nil
}

// Cost returns the scalar cost at params.
func (e *Evaluator) Cost(params []float64) (float64, error) {
	A, err := e.Product(params)
	if err != nil {
		return 0, err
	}
	f, _ := e.score(A, false)

	return f, nil
}

// CostGradient returns the cost at params and writes ∂f/∂params into grad.
func (e *Evaluator) CostGradient(params, grad []float64) (float64, error) {
	if len(params) != e.params || len(grad) != e.params {
		return 0, fmt.Errorf("CostGradient: params %d grad %d want %d: %w", len(params), len(grad), e.params, ErrParameterCount)
	}

	// Stage 1: C_g sweep (suffix adjoints onto U); ends with A.
	n := len(e.elems)
	C := make([]*matrix.Dense, n)
	cur := e.target.Clone()
	for g := n - 1; g >= 0; g-- {
		el := e.elems[g]
		if el.Gate.ParameterNum() > 0 {
			C[g] = cur.Clone()
		}
		if err := el.Gate.ApplyAdjointTo(el.Params(params), cur); err != nil {
			return 0, err
		}
	}
	f, G := e.score(cur, true)

	// Stage 2: B_g sweep (prefix gates onto G).
	B := make([]*matrix.Dense, n)
	cur = G
	for g := 0; g < n; g++ {
		el := e.elems[g]
		if el.Gate.ParameterNum() > 0 {
			B[g] = cur.Clone()
		}
		if err := el.Gate.ApplyTo(el.Params(params), cur); err != nil {
			return 0, err
		}
	}

	// Stage 3: independent per-gate components.
	var eg errgroup.Group
	eg.SetLimit(e.opts.Workers)
	for g := 0; g < n; g++ {
		if B[g] == nil {
			continue
		}
		el, b, c := e.elems[g], B[g], C[g]
		eg.Go(func() error {
			p := el.Params(params)
			for k := range p {
				D := b.Clone()
				if err := el.Gate.ApplyDerivativeTo(p, k, D); err != nil {
					return err
				}
				var s float64
				cd := c.RawData()
				for i, v := range D.RawData() {
					s += real(cmplx.Conj(cd[i]) * v)
				}
				grad[el.Offset+k] = 2 * s
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	return f, nil
}

// score evaluates the configured variant on A and, when wantGrad is set,
// returns G = ∂f/∂Ā (non-zero on the shifted diagonal only).
func (e *Evaluator) score(A *matrix.Dense, wantGrad bool) (float64, *matrix.Dense) {
	cols := A.Cols()
	d := e.opts.TraceOffset
	data := A.RawData()
	m := float64(cols)
	x := make([]complex128, cols)
	var T complex128
	for j := range x {
		x[j] = data[(j+d)*cols+j]
		T += x[j]
	}

	// Phase reference p from A[d,0]; h = Re(p̄·T).
	a := x[0]
	absA := cmplx.Abs(a)
	p := complex(1, 0)
	if absA > phaseFloor {
		p = a / complex(absA, 0)
	}
	h := real(cmplx.Conj(p) * T)

	// gF holds ∂(Frobenius)/∂x̄_j; gF0 is the extra term on x_0 from p's
	// dependence on a.
	gF := -p / complex(2*m, 0)
	var gF0 complex128
	if absA > phaseFloor {
		gF0 = -(T - complex(h, 0)*p) / complex(2*absA*m, 0)
	}

	v := e.opts.Variant
	var f float64
	g := make([]complex128, cols)
	if v.hilbertSchmidt() {
		abs := cmplx.Abs(T)
		f = 1 - abs*abs/(m*m)
		for j := range g {
			g[j] = -T / complex(m*m, 0)
		}
	} else {
		f = 1 - h/m
		for j := range g {
			g[j] = gF
		}
		g[0] += gF0
	}

	if v.correction1() {
		s1 := e.opts.Correction1Scale
		var off float64
		for j, xj := range x {
			off += 1 - real(xj)*real(xj) - imag(xj)*imag(xj)
			g[j] -= complex(s1/m, 0) * xj
		}
		f += s1 * off / m
	}
	if v.correction2() {
		s2 := e.opts.Correction2Scale
		var spread float64
		for j, xj := range x {
			ax := cmplx.Abs(xj)
			spread += ax
			if ax > phaseFloor {
				g[j] += complex(s2/(2*ax*m), 0) * xj
			}
			g[j] += complex(s2, 0) * gF
		}
		g[0] += complex(s2, 0) * gF0
		f += s2 * (spread - h) / m
	}

	if !wantGrad {
		return f, nil
	}
	G, _ := matrix.NewDense(A.Rows(), cols)
	gd := G.RawData()
	for j, gj := range g {
		gd[(j+d)*cols+j] = gj
	}

	return f, G
}

// DecompositionError is the acceptance metric between a target U and a
// recomposed V: with P = V†·U restricted to the populated m×m block and
// normalized by the phase of P[0,0], the error is Re Tr(2I − P − P†)/2,
// i.e. m − Re Tr(P). Zero means equality up to global phase. For square
// inputs Tr(V†·U) equals Tr(U·V†).
func DecompositionError(target, composed *matrix.Dense) (float64, error) {
	if target == nil || composed == nil {
		return 0, fmt.Errorf("DecompositionError: %w", matrix.ErrNilMatrix)
	}
	if target.Rows() != composed.Rows() || target.Cols() > composed.Cols() {
		return 0, fmt.Errorf("DecompositionError: %dx%d vs %dx%d: %w",
			target.Rows(), target.Cols(), composed.Rows(), composed.Cols(), ErrDimensionMismatch)
	}
	cols := target.Cols()
	sub, err := composed.Columns(cols)
	if err != nil {
		return 0, err
	}
	adj, err := matrix.Adjoint(sub)
	if err != nil {
		return 0, err
	}
	P, err := matrix.Mul(adj, target)
	if err != nil {
		return 0, err
	}
	p00, _ := P.At(0, 0)
	phase := complex(1, 0)
	if ab := cmplx.Abs(p00); ab > phaseFloor {
		phase = cmplx.Conj(p00) / complex(ab, 0)
	}
	tr, err := matrix.Trace(P)
	if err != nil {
		return 0, err
	}

	return math.Max(0, float64(cols)-real(tr*phase)), nil
}
