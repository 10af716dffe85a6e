// SPDX-License-Identifier: MIT

package decomposition

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/katalvlaran/qgd/cost"
	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/optimizer"
)

// closeToZeroScale bounds the close-to-zero initial guess.
const closeToZeroScale = 0.01

// solution is one optimized parameter vector for a fixed structure.
type solution struct {
	params         []float64
	cost           float64
	iterations     int
	randomizations int
}

func (d *Decomposition) evaluator(s *gate.Block) (*cost.Evaluator, error) {
	return cost.NewEvaluator(d.work, s,
		cost.WithVariant(d.opts.CostVariant),
		cost.WithTraceOffset(d.opts.TraceOffset),
		cost.WithWorkers(d.opts.Workers),
	)
}

func (d *Decomposition) optimizerOptions(tol float64, seed int64) []optimizer.Option {
	return []optimizer.Option{
		optimizer.WithKind(d.opts.Optimizer),
		optimizer.WithTolerance(tol),
		optimizer.WithMaxIterations(d.opts.MaxIterations),
		optimizer.WithRandomizationThreshold(d.opts.RandomizationThreshold),
		optimizer.WithMaxRandomizations(d.opts.MaxRandomizations),
		optimizer.WithRadius(d.opts.Radius, optimizer.DefaultRadiusDecay),
		optimizer.WithAdam(d.opts.LearningRate, optimizer.DefaultBeta1, optimizer.DefaultBeta2),
		optimizer.WithBatchSize(d.opts.BatchSize),
		optimizer.WithSeed(seed),
		optimizer.WithLogger(d.log),
		optimizer.WithMetrics(d.opts.Metrics),
	}
}

// solve optimizes the parameters of s from x0. When OptimizationBlocks is
// smaller than the layer count, windows of that many consecutive layers are
// optimized in turn with the rest fixed (see sweepWindows) before a joint
// pass over every parameter. solve only reads driver state and is safe to
// run concurrently.
func (d *Decomposition) solve(s *gate.Block, x0 []float64, tol float64, seed int64, extra ...optimizer.Option) (solution, error) {
	ev, err := d.evaluator(s)
	if err != nil {
		return solution{}, err
	}
	x := append([]float64(nil), x0...)
	sol := solution{params: x}

	budget := d.opts.MaxIterations
	if blocks := d.opts.OptimizationBlocks; blocks > 0 && blocks < s.Len() {
		w, err := d.sweepWindows(ev, s, x, tol, seed)
		if err != nil {
			return solution{}, err
		}
		sol.iterations = w.iterations
		if w.cost < tol {
			sol.cost = w.cost
			return sol, nil
		}
		budget = max(budget-w.iterations, 1)
	}

	opts := append(append([]optimizer.Option(nil), extra...), optimizer.WithMaxIterations(budget))
	res, err := d.minimize(ev, x, 0, len(x), tol, seed, opts)
	if err != nil {
		return solution{}, err
	}
	sol.iterations += res.Iterations
	sol.randomizations = res.Randomizations
	sol.cost = res.Cost

	return sol, nil
}

// windowProgress is the relative cost drop a sweep must achieve to count
// as progress.
const windowProgress = 1e-3

// sweepWindows runs block-coordinate descent over windows of
// OptimizationBlocks layers, updating x in place. Window runs do not
// randomize. Sweeping stops once the cost is below tol, after
// IterationLoops sweeps in a row without progress, or when half of
// MaxIterations is spent.
func (d *Decomposition) sweepWindows(ev *cost.Evaluator, s *gate.Block, x []float64, tol float64, seed int64) (solution, error) {
	layers, blocks := s.Len(), d.opts.OptimizationBlocks
	offsets := make([]int, layers+1)
	for i := range offsets {
		offsets[i], _ = s.ParameterOffset(i)
	}
	limit := max(d.opts.MaxIterations/2, 1)

	var (
		out    solution
		stream uint64
		stale  int
	)
	prev, err := ev.Cost(x)
	if err != nil {
		return solution{}, err
	}
	out.cost = prev
	for sweep := 0; out.cost >= tol && stale < d.opts.IterationLoops && out.iterations < limit; sweep++ {
		for start := 0; start < layers && out.iterations < limit; start += blocks {
			lo, hi := offsets[start], offsets[min(start+blocks, layers)]
			if lo == hi {
				continue
			}
			stream++
			res, err := d.minimize(ev, x, lo, hi, tol, optimizer.DeriveSeed(seed, stream), []optimizer.Option{
				optimizer.WithMaxIterations(limit - out.iterations),
				optimizer.WithMaxRandomizations(0),
			})
			if err != nil {
				return solution{}, err
			}
			out.iterations += res.Iterations
			out.cost = res.Cost
			if out.cost < tol {
				break
			}
		}
		if prev-out.cost < windowProgress*prev {
			stale++
		} else {
			stale = 0
		}
		d.log.Debug("window sweep finished",
			zap.Int("sweep", sweep),
			zap.Float64("cost", out.cost),
			zap.Int("iterations", out.iterations),
		)
		prev = out.cost
	}

	return out, nil
}

// minimize optimizes x[lo:hi] with the other entries fixed and writes the
// incumbent back into x.
func (d *Decomposition) minimize(ev *cost.Evaluator, x []float64, lo, hi int, tol float64, seed int64, extra []optimizer.Option) (optimizer.Result, error) {
	full := append([]float64(nil), x...)
	grad := make([]float64, len(x))
	p := optimizer.Problem{
		Func: func(sub []float64) (float64, error) {
			copy(full[lo:hi], sub)
			return ev.Cost(full)
		},
		FuncGrad: func(sub, g []float64) (float64, error) {
			copy(full[lo:hi], sub)
			f, err := ev.CostGradient(full, grad)
			if err != nil {
				return 0, err
			}
			copy(g, grad[lo:hi])
			return f, nil
		},
	}
	opts := append(d.optimizerOptions(tol, seed), extra...)
	res, err := optimizer.Minimize(p, x[lo:hi], opts...)
	if err != nil {
		return optimizer.Result{}, err
	}
	copy(x[lo:hi], res.X)
	d.log.Debug("window optimized",
		zap.Int("from", lo),
		zap.Int("to", hi),
		zap.Float64("cost", res.Cost),
		zap.Stringer("state", res.State),
	)

	return res, nil
}

// randomGuess draws every parameter uniformly from [0, 2π).
func randomGuess(rng *rand.Rand, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 2 * math.Pi * rng.Float64()
	}

	return x
}

// closeToZeroGuess draws every parameter uniformly from ±closeToZeroScale.
func closeToZeroGuess(rng *rand.Rand, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = closeToZeroScale * (2*rng.Float64() - 1)
	}

	return x
}

// relaxTolerance loosens the working tolerance after a search that did not
// converge, so later stages accept the best structure found.
func (d *Decomposition) relaxTolerance(best float64) {
	d.tolerance = math.Min(1.5*best, 1e-2)
	d.log.Warn("prescribed precision not reached, relaxing tolerance",
		zap.Float64("best", best),
		zap.Float64("tolerance", d.tolerance),
	)
}
