// SPDX-License-Identifier: MIT
// Package optimizer: state machine.
//
// Lifecycle:
//
//	INIT → ITERATING → (RANDOMIZING → ITERATING)* → CONVERGED | EXHAUSTED
//
// States:
//   - INIT evaluates x0 and seeds the incumbent.
//   - ITERATING runs the strategy until the best cost drops below tolerance,
//     the iteration budget is spent, the cost stalls for more than
//     RandomizationThreshold consecutive iterations, or the strategy reaches
//     a local minimum.
//   - RANDOMIZING copies the incumbent and perturbs a random subset of its
//     coordinates within a radius that shrinks with every randomization.
//   - EXHAUSTED is not an error: the incumbent is returned with its cost.
//
// The incumbent best cost never increases.
package optimizer

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Problem is the objective. FuncGrad is required; Func is optional and
// falls back to FuncGrad with a scratch gradient.
type Problem struct {
	Func     func(x []float64) (float64, error)
	FuncGrad func(x, grad []float64) (float64, error)
}

// Result reports a finished run.
type Result struct {
	X              []float64
	Cost           float64
	State          State
	Iterations     int
	Randomizations int
}

// Converged reports whether the run ended in StateConverged.
func (r Result) Converged() bool { return r.State == StateConverged }

type run struct {
	opts Options
	p    Problem
	rng  *rand.Rand
	log  *zap.Logger

	state          State
	best           []float64
	bestCost       float64
	iterations     int
	randomizations int
	stall          int
}

// Minimize drives the state machine from x0 and returns the incumbent.
// Errors come only from the objective; non-convergence is reported through
// Result.State.
func Minimize(p Problem, x0 []float64, opts ...Option) (Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if p.FuncGrad == nil {
		return Result{}, ErrNilProblem
	}
	if p.Func == nil {
		scratch := make([]float64, len(x0))
		p.Func = func(x []float64) (float64, error) { return p.FuncGrad(x, scratch) }
	}

	r := &run{opts: o, p: p, rng: rngFromSeed(o.Seed), log: o.Logger, state: StateInit}
	start := time.Now()

	x := append([]float64(nil), x0...)
	f0, err := p.Func(x)
	if err != nil {
		return Result{}, err
	}
	r.best = append([]float64(nil), x...)
	r.bestCost = f0
	r.transition(StateIterating)

	for len(x) > 0 && r.bestCost >= o.Tolerance && r.iterations < o.MaxIterations {
		if err = r.iterate(x); err != nil {
			return Result{}, err
		}
		if r.bestCost < o.Tolerance || r.iterations >= o.MaxIterations || r.randomizations >= o.MaxRandomizations {
			break
		}
		r.transition(StateRandomizing)
		r.perturb(x)
		r.transition(StateIterating)
	}

	final := StateExhausted
	if r.bestCost < o.Tolerance {
		final = StateConverged
	}
	r.transition(final)
	o.Metrics.finish(final, r.bestCost, time.Since(start))
	r.log.Debug("optimizer finished",
		zap.Stringer("kind", o.Kind),
		zap.Stringer("state", final),
		zap.Float64("cost", r.bestCost),
		zap.Int("iterations", r.iterations),
		zap.Int("randomizations", r.randomizations),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Result{
		X:              r.best,
		Cost:           r.bestCost,
		State:          final,
		Iterations:     r.iterations,
		Randomizations: r.randomizations,
	}, nil
}

func (r *run) transition(to State) {
	from := r.state
	r.state = to
	if r.opts.OnTransition != nil {
		r.opts.OnTransition(from, to)
	}
}

// iterate runs one ITERATING phase of the configured strategy from x.
func (r *run) iterate(x []float64) error {
	switch r.opts.Kind {
	case ADAM:
		return r.runAdam(x, false)
	case ADAMBatched:
		return r.runAdam(x, true)
	case BFGS2:
		return r.runGonum(x, newBFGS2())
	default:
		return r.runGonum(x, newBFGS())
	}
}

// observe books one iteration at cost f and reports whether the ITERATING
// phase must end.
func (r *run) observe(x []float64, f float64) bool {
	r.iterations++
	r.opts.Metrics.iteration()

	if f < r.bestCost-r.opts.MinRelativeDecrease*math.Abs(r.bestCost) {
		r.stall = 0
	} else {
		r.stall++
	}
	if f < r.bestCost {
		r.bestCost = f
		copy(r.best, x)
	}
	if r.opts.OnIteration != nil {
		r.opts.OnIteration(r.iterations, f, r.bestCost)
	}

	return r.bestCost < r.opts.Tolerance ||
		r.iterations >= r.opts.MaxIterations ||
		r.stall > r.opts.RandomizationThreshold
}

// perturb resets x to the incumbent and shifts a random subset of
// coordinates (at least one) uniformly within the current radius.
func (r *run) perturb(x []float64) {
	radius := r.opts.Radius * math.Pow(r.opts.RadiusDecay, float64(r.randomizations)) * math.Pi
	copy(x, r.best)
	moved := false
	for i := range x {
		if r.rng.Float64() < r.opts.RandomizationRate {
			x[i] += radius * (2*r.rng.Float64() - 1)
			moved = true
		}
	}
	if !moved {
		x[r.rng.Intn(len(x))] += radius * (2*r.rng.Float64() - 1)
	}
	r.randomizations++
	r.stall = 0
	r.opts.Metrics.randomization()
	r.log.Debug("randomizing incumbent",
		zap.Int("randomization", r.randomizations),
		zap.Float64("best", r.bestCost),
		zap.Float64("radius", radius),
	)
}
