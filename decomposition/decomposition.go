// SPDX-License-Identifier: MIT

package decomposition

import (
	"fmt"
	"io"
	"math/cmplx"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/katalvlaran/qgd/cost"
	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/matrix"
	"github.com/katalvlaran/qgd/optimizer"
	"github.com/katalvlaran/qgd/topology"
)

// Result reports a finished Start or Resume.
type Result struct {
	// Cost is the final cost of the structure at the returned parameters.
	Cost float64
	// Error is the trace distance m − Re Tr(P) between target and circuit.
	Error float64
	// Converged is false when the cost stayed above the tolerance; the
	// best-effort structure and parameters are kept either way.
	Converged      bool
	Layers         int
	Counts         gate.Counts
	Iterations     int
	Randomizations int
	Elapsed        time.Duration
}

// Stats describes the instance and its last run.
type Stats struct {
	ID         string
	Qubits     int
	Parameters int
	Result
}

// Decomposition searches a gate structure and parameters whose circuit
// reproduces a target unitary (or its leading columns) up to global phase.
// An instance is not safe for concurrent use; internal fan-out is.
type Decomposition struct {
	id       uuid.UUID
	opts     Options
	log      *zap.Logger
	qubitNum int
	top      *topology.Topology

	// target is the matrix given to New; work is the matrix actually
	// decomposed after imported structures have been absorbed.
	target *matrix.Dense
	work   *matrix.Dense

	structure *gate.Block
	params    []float64
	custom    bool

	tolerance      float64
	current        float64
	globalPhase    float64
	iterations     int
	randomizations int
	stream         uint64
	exported       []gate.Record
	last           Result
}

// New validates U and the options and returns a driver. U must have 2^n
// rows with n ≥ 1 and at most 2^n columns; fewer columns select the
// state-preparation (isometry) problem.
func New(U *matrix.Dense, opts ...Option) (*Decomposition, error) {
	o, err := Apply(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "New")
	}
	if err = matrix.ValidateFinite(U); err != nil {
		return nil, invalidInput("New", err)
	}
	n, err := matrix.Log2Dim(U.Rows())
	if err != nil {
		return nil, invalidInput("New", err)
	}
	if n == 0 || U.Cols() > U.Rows() {
		return nil, invalidInput(fmt.Sprintf("New(%dx%d)", U.Rows(), U.Cols()), matrix.ErrBadShape)
	}
	if U.Cols()+o.TraceOffset > U.Rows() {
		return nil, invalidInput(fmt.Sprintf("New: trace offset %d", o.TraceOffset), cost.ErrDimensionMismatch)
	}

	d := &Decomposition{
		id:        uuid.New(),
		opts:      o,
		qubitNum:  n,
		target:    U.Clone(),
		work:      U.Clone(),
		tolerance: o.Tolerance,
	}
	d.log = o.Logger.With(zap.String("id", d.id.String()), zap.Int("qubits", n))

	if o.TopologyPairs != nil {
		if d.top, err = topology.New(n, o.TopologyPairs); err != nil {
			return nil, invalidInput("New", err)
		}
		if err = d.top.RequireConnected(); err != nil {
			return nil, invalidInput("New", err)
		}
	}
	if o.CustomStructure != nil {
		b, ok := o.CustomStructure[n]
		if !ok || b == nil {
			return nil, invalidInput(fmt.Sprintf("New: custom structure for %d qubits", n), ErrNoStructure)
		}
		if b.QubitNum() != n {
			return nil, invalidInput("New: custom structure", gate.ErrQubitNumMismatch)
		}
		d.structure, d.custom = b.Clone(), true
	}
	if !o.optimizerSet && n > DefaultBFGSQubitLimit {
		d.opts.Optimizer = optimizer.ADAM
	}
	if o.AcceleratorNum > 0 {
		d.log.Info("no accelerator backend available, running on host",
			zap.Int("accelerators", o.AcceleratorNum))
	}

	return d, nil
}

// ID returns the instance identifier used in logs.
func (d *Decomposition) ID() string { return d.id.String() }

// QubitNum returns the register size.
func (d *Decomposition) QubitNum() int { return d.qubitNum }

// Options returns the effective configuration.
func (d *Decomposition) Options() Options { return d.opts }

// Target returns a copy of the matrix being decomposed.
func (d *Decomposition) Target() *matrix.Dense { return d.work.Clone() }

// set applies opt to a copy of the options and keeps it if valid.
func (d *Decomposition) set(op string, opt Option) error {
	o := d.opts
	o.err = nil
	opt(&o)
	if err := o.validate(); err != nil {
		return invalidInput(op, err)
	}
	d.opts = o

	return nil
}

// SetOptimizer selects the optimization strategy for later runs.
func (d *Decomposition) SetOptimizer(k optimizer.Kind) error {
	return d.set("SetOptimizer", WithOptimizer(k))
}

// SetCostFunctionVariant selects the cost function for later runs.
func (d *Decomposition) SetCostFunctionVariant(v cost.Variant) error {
	return d.set("SetCostFunctionVariant", WithCostVariant(v))
}

// SetOptimizationBlocks sets how many layers are optimized jointly (0 = all).
func (d *Decomposition) SetOptimizationBlocks(n int) error {
	return d.set("SetOptimizationBlocks", WithOptimizationBlocks(n))
}

// SetTraceOffset selects the compared diagonal.
func (d *Decomposition) SetTraceOffset(off int) error {
	if off >= 0 && d.work.Cols()+off > d.work.Rows() {
		return invalidInput(fmt.Sprintf("SetTraceOffset(%d)", off), cost.ErrDimensionMismatch)
	}
	return d.set("SetTraceOffset", WithTraceOffset(off))
}

// SetRandomizedRadius sets the initial perturbation radius (units of π).
func (d *Decomposition) SetRandomizedRadius(r float64) error {
	return d.set("SetRandomizedRadius", WithRandomizedRadius(r))
}

// SetIterationThresholdOfRandomization sets the stall length that triggers
// a perturbation.
func (d *Decomposition) SetIterationThresholdOfRandomization(n int) error {
	return d.set("SetIterationThresholdOfRandomization", WithRandomizationThreshold(n))
}

// SetMaxIterations sets the iteration budget of every optimizer run.
func (d *Decomposition) SetMaxIterations(n int) error {
	return d.set("SetMaxIterations", WithMaxIterations(n))
}

// SetOptimizationTolerance sets the convergence threshold on the cost.
func (d *Decomposition) SetOptimizationTolerance(tol float64) error {
	if err := d.set("SetOptimizationTolerance", WithTolerance(tol)); err != nil {
		return err
	}
	d.tolerance = tol

	return nil
}

// SetGateStructure installs b (copied) and switches to custom-structure mode.
// Previously optimized parameters are discarded.
func (d *Decomposition) SetGateStructure(b *gate.Block) error {
	if b == nil {
		return invalidInput("SetGateStructure", ErrNoStructure)
	}
	if b.QubitNum() != d.qubitNum {
		return invalidInput("SetGateStructure", gate.ErrQubitNumMismatch)
	}
	d.structure, d.params, d.custom = b.Clone(), nil, true
	d.exported = nil

	return nil
}

// GateStructure returns a copy of the current structure, or nil.
func (d *Decomposition) GateStructure() *gate.Block {
	if d.structure == nil {
		return nil
	}
	return d.structure.Clone()
}

// ParameterNum returns the number of free parameters of the structure.
func (d *Decomposition) ParameterNum() int {
	if d.structure == nil {
		return 0
	}
	return d.structure.ParameterNum()
}

// SetOptimizedParameters installs a parameter vector for the current
// structure; it becomes the starting point of the next run.
func (d *Decomposition) SetOptimizedParameters(params []float64) error {
	if d.structure == nil {
		return errors.Wrap(ErrNoStructure, "SetOptimizedParameters")
	}
	if len(params) != d.structure.ParameterNum() {
		return invalidInput(fmt.Sprintf("SetOptimizedParameters: got %d want %d", len(params), d.structure.ParameterNum()),
			gate.ErrParameterCount)
	}
	d.params = append([]float64(nil), params...)
	d.exported = nil

	return nil
}

// OptimizedParameters returns a copy of the current parameter vector.
func (d *Decomposition) OptimizedParameters() []float64 {
	return append([]float64(nil), d.params...)
}

// Start runs the decomposition. In custom-structure mode it only optimizes
// the supplied structure; otherwise it searches adaptive levels (or starts
// from an imported structure), compresses, replaces adaptive gates by native
// ones and runs a final optimization. The gate list is prepared for export.
//
// A run that does not reach the tolerance is not an error: the Result has
// Converged == false and carries the best-effort cost.
func (d *Decomposition) Start() (Result, error) {
	start := time.Now()
	d.tolerance = d.opts.Tolerance
	d.iterations, d.randomizations = 0, 0
	d.log.Info("decomposition started",
		zap.Stringer("optimizer", d.opts.Optimizer),
		zap.Stringer("cost", d.opts.CostVariant),
		zap.Bool("custom", d.custom),
	)

	var err error
	if d.custom {
		err = d.runCustom()
	} else {
		err = d.runAdaptive()
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "Start")
	}

	return d.finish(start)
}

// Resume continues optimizing the current structure from the current
// parameters without structural search.
func (d *Decomposition) Resume() (Result, error) {
	if d.structure == nil {
		return Result{}, errors.Wrap(ErrNoStructure, "Resume")
	}
	start := time.Now()
	d.tolerance = d.opts.Tolerance
	x0 := d.params
	if len(x0) != d.structure.ParameterNum() {
		x0 = randomGuess(optimizer.NewRand(d.nextSeed()), d.structure.ParameterNum())
	}
	sol, err := d.solve(d.structure, x0, d.tolerance, d.nextSeed())
	if err != nil {
		return Result{}, errors.Wrap(err, "Resume")
	}
	d.accept(d.structure, sol)

	return d.finish(start)
}

func (d *Decomposition) runCustom() error {
	if d.structure == nil {
		return ErrNoStructure
	}
	x0 := d.params
	if len(x0) != d.structure.ParameterNum() {
		x0 = randomGuess(optimizer.NewRand(d.nextSeed()), d.structure.ParameterNum())
	}
	sol, err := d.solve(d.structure, x0, d.tolerance, d.nextSeed())
	if err != nil {
		return err
	}
	d.accept(d.structure, sol)

	return nil
}

// accept installs a solved structure as the current state.
func (d *Decomposition) accept(s *gate.Block, sol solution) {
	d.structure = s
	d.params = sol.params
	d.current = sol.cost
	d.iterations += sol.iterations
	d.randomizations += sol.randomizations
	d.exported = nil
}

// finish computes the global phase, error and export list of the current state.
func (d *Decomposition) finish(start time.Time) (Result, error) {
	if err := d.updateGlobalPhase(); err != nil {
		return Result{}, err
	}
	if _, err := d.PrepareGatesToExport(); err != nil {
		return Result{}, err
	}
	V, err := d.structure.Matrix(d.params)
	if err != nil {
		return Result{}, err
	}
	decErr, err := cost.DecompositionError(d.work, V)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Cost:           d.current,
		Error:          decErr,
		Converged:      d.current < d.opts.Tolerance,
		Layers:         d.structure.Len(),
		Counts:         d.structure.Counts(),
		Iterations:     d.iterations,
		Randomizations: d.randomizations,
		Elapsed:        time.Since(start),
	}
	d.last = res
	d.log.Info("decomposition finished",
		zap.Float64("cost", res.Cost),
		zap.Float64("error", res.Error),
		zap.Bool("converged", res.Converged),
		zap.Int("layers", res.Layers),
		zap.Stringer("gates", res.Counts),
		zap.Int("iterations", res.Iterations),
		zap.Duration("elapsed", res.Elapsed),
	)

	return res, nil
}

// Stats returns the instance description and the last run's result.
func (d *Decomposition) Stats() Stats {
	return Stats{
		ID:         d.ID(),
		Qubits:     d.qubitNum,
		Parameters: d.ParameterNum(),
		Result:     d.last,
	}
}

// Optimize evaluates the cost of the current structure at params
// (the current parameters when params is nil).
func (d *Decomposition) Optimize(params []float64) (float64, error) {
	ev, x, err := d.bind("Optimize", params)
	if err != nil {
		return 0, err
	}
	return ev.Cost(x)
}

// OptimizeCombined evaluates the cost and its gradient at params.
func (d *Decomposition) OptimizeCombined(params []float64) (float64, []float64, error) {
	ev, x, err := d.bind("OptimizeCombined", params)
	if err != nil {
		return 0, nil, err
	}
	grad := make([]float64, len(x))
	f, err := ev.CostGradient(x, grad)
	if err != nil {
		return 0, nil, err
	}

	return f, grad, nil
}

func (d *Decomposition) bind(op string, params []float64) (*cost.Evaluator, []float64, error) {
	if d.structure == nil {
		return nil, nil, errors.Wrap(ErrNoStructure, op)
	}
	if params == nil {
		params = d.params
	}
	ev, err := d.evaluator(d.structure)
	if err != nil {
		return nil, nil, errors.Wrap(err, op)
	}
	if len(params) != ev.ParameterNum() {
		return nil, nil, errors.Wrapf(gate.ErrParameterCount, "%s: got %d want %d", op, len(params), ev.ParameterNum())
	}

	return ev, params, nil
}

// Matrix returns the 2^n×2^n unitary of the current structure at params
// (the current parameters when params is nil).
func (d *Decomposition) Matrix(params []float64) (*matrix.Dense, error) {
	if d.structure == nil {
		return nil, errors.Wrap(ErrNoStructure, "Matrix")
	}
	if params == nil {
		params = d.params
	}
	m, err := d.structure.Matrix(params)
	if err != nil {
		return nil, errors.Wrap(err, "Matrix")
	}

	return m, nil
}

// GlobalPhase returns φ such that target ≈ e^{iφ}·circuit on the compared
// columns, as measured after the last run.
func (d *Decomposition) GlobalPhase() float64 { return d.globalPhase }

// SetGlobalPhase overrides the recorded global phase.
func (d *Decomposition) SetGlobalPhase(phi float64) { d.globalPhase = phi }

// ApplyGlobalPhaseFactor multiplies the target by e^{-iφ} so the circuit
// reproduces it exactly, then resets the recorded phase to zero.
func (d *Decomposition) ApplyGlobalPhaseFactor() {
	d.work.Scale(cmplx.Exp(complex(0, -d.globalPhase)))
	d.globalPhase = 0
}

func (d *Decomposition) updateGlobalPhase() error {
	ev, err := d.evaluator(d.structure)
	if err != nil {
		return err
	}
	A, err := ev.Product(d.params)
	if err != nil {
		return err
	}
	a, err := A.At(d.opts.TraceOffset, 0)
	if err != nil {
		return err
	}
	d.globalPhase = cmplx.Phase(a)

	return nil
}

// Reorder relabels qubit q as perm[q] in the structure, the target and the
// topology, without re-optimizing: the cost at the current parameters is
// unchanged. Target columns are basis states too and move with the rows, so
// a rectangular target only accepts permutations that map the compared
// columns (and their offset diagonal) onto themselves.
func (d *Decomposition) Reorder(perm []int) error {
	if len(perm) != d.qubitNum {
		return invalidInput("Reorder", gate.ErrInvalidPermutation)
	}
	if err := checkPermutation(perm); err != nil {
		return invalidInput("Reorder", err)
	}
	if err := keepsComparedColumns(perm, d.work.Cols(), d.opts.TraceOffset); err != nil {
		return invalidInput(fmt.Sprintf("Reorder(%v)", perm), err)
	}
	if d.structure != nil {
		if err := d.structure.Reorder(perm); err != nil {
			return invalidInput("Reorder", err)
		}
	}
	d.work = permuteBasis(d.work, perm)
	d.target = permuteBasis(d.target, perm)
	if d.top != nil {
		pairs := d.top.Pairs()
		for i, p := range pairs {
			pairs[i] = [2]int{perm[p[0]], perm[p[1]]}
		}
		top, err := topology.New(d.qubitNum, pairs)
		if err != nil {
			return invalidInput("Reorder", err)
		}
		d.top = top
	}
	d.exported = nil

	return nil
}

func checkPermutation(perm []int) error {
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return gate.ErrInvalidPermutation
		}
		seen[p] = true
	}

	return nil
}

// basisIndex maps basis index i to σ(i), where bit q of i moves to bit perm[q].
func basisIndex(perm []int, i int) int {
	out := 0
	for q, p := range perm {
		out |= (i >> q & 1) << p
	}

	return out
}

// keepsComparedColumns requires σ(j) < cols and σ(j+offset) = σ(j)+offset
// for every compared column j, so the shifted diagonal of V†·U is permuted
// onto itself and its first entry stays in place.
func keepsComparedColumns(perm []int, cols, offset int) error {
	for j := 0; j < cols; j++ {
		sj := basisIndex(perm, j)
		if sj >= cols || basisIndex(perm, j+offset) != sj+offset {
			return ErrColumnPermutation
		}
	}

	return nil
}

// permuteBasis maps row i to σ(i) and column j to σ(j). Callers guarantee
// σ keeps the column range.
func permuteBasis(m *matrix.Dense, perm []int) *matrix.Dense {
	rows, cols := m.Rows(), m.Cols()
	out, _ := matrix.NewDense(rows, cols)
	src, dst := m.RawData(), out.RawData()
	colIdx := make([]int, cols)
	for j := range colIdx {
		colIdx[j] = basisIndex(perm, j)
	}
	for i := 0; i < rows; i++ {
		si := basisIndex(perm, i)
		for j, sj := range colIdx {
			dst[si*cols+sj] = src[i*cols+j]
		}
	}

	return out
}

// ApplyImportedGateStructure absorbs the current structure into the target:
// the target becomes V(params)†·U and the structure is cleared. A later
// decomposition W of the new target composes with it as V·W.
func (d *Decomposition) ApplyImportedGateStructure() error {
	if d.structure == nil {
		return nil
	}
	ev, x, err := d.bind("ApplyImportedGateStructure", nil)
	if err != nil {
		return err
	}
	A, err := ev.Product(x)
	if err != nil {
		return errors.Wrap(err, "ApplyImportedGateStructure")
	}
	d.work = A
	d.structure, d.params, d.custom = nil, nil, false
	d.exported = nil

	return nil
}

// SaveStructure writes the structure and parameters in the binary gate
// structure format.
func (d *Decomposition) SaveStructure(w io.Writer) error {
	if d.structure == nil {
		return errors.Wrap(ErrNoStructure, "SaveStructure")
	}
	return errors.Wrap(gate.EncodeBlock(w, d.structure, d.params), "SaveStructure")
}

// ImportStructure reads a structure written by SaveStructure and uses it as
// the starting structure of an adaptive run (compression and native
// replacement still apply). Stored parameters become the initial guess.
func (d *Decomposition) ImportStructure(r io.Reader) error {
	b, params, err := gate.DecodeBlock(r)
	if err != nil {
		return invalidInput("ImportStructure", err)
	}
	if b.QubitNum() != d.qubitNum {
		return invalidInput("ImportStructure", gate.ErrQubitNumMismatch)
	}
	if len(params) != b.ParameterNum() {
		params = nil
	}
	d.structure, d.params, d.custom = b, params, false
	d.exported = nil
	d.log.Debug("imported gate structure", zap.Int("layers", b.Len()), zap.Int("parameters", b.ParameterNum()))

	return nil
}

// AddAdaptiveLayers appends one adaptive sweep to the structure, creating
// it if needed. Existing parameters are kept and the new ones start at zero.
func (d *Decomposition) AddAdaptiveLayers() error {
	return d.extend(d.appendAdaptiveSweep)
}

// AddFinalizingLayer appends a U3 rotation on every qubit.
func (d *Decomposition) AddFinalizingLayer() error {
	return d.extend(d.appendFinalizingLayer)
}

// AddLayerToImportedStructure appends one adaptive sweep to an existing
// structure and pads the parameters with zeros.
func (d *Decomposition) AddLayerToImportedStructure() error {
	if d.structure == nil {
		return errors.Wrap(ErrNoStructure, "AddLayerToImportedStructure")
	}
	if d.params == nil {
		d.params = make([]float64, d.structure.ParameterNum())
	}
	return d.extend(d.appendAdaptiveSweep)
}

func (d *Decomposition) extend(add func(*gate.Block) error) error {
	if d.structure == nil {
		b, err := gate.NewBlock(d.qubitNum)
		if err != nil {
			return err
		}
		d.structure = b
	}
	before := d.structure.ParameterNum()
	if err := add(d.structure); err != nil {
		return err
	}
	if d.params != nil && len(d.params) == before {
		d.params = append(d.params, make([]float64, d.structure.ParameterNum()-before)...)
	}
	d.exported = nil

	return nil
}

// nextSeed derives the seed of the next independent random stream.
func (d *Decomposition) nextSeed() int64 {
	d.stream++
	return optimizer.DeriveSeed(d.opts.Seed, d.stream)
}
