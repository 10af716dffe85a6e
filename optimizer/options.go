// SPDX-License-Identifier: MIT

// Package optimizer: functional configuration.
//   - Option / Options with documented defaults (single source of truth),
//   - WithX constructors that panic on nonsensical values (programmer error).
//
// Notes:
//   - Tolerance is compared against the cost itself; the Frobenius cost is
//     quadratic in the residual, so 1e-8 corresponds to a residual of ≈1e-4.
//   - Radius is in units of π: a perturbation draws uniformly from
//     ±Radius·RadiusDecay^k·π around the incumbent, k = randomizations so far.
package optimizer

import (
	"fmt"

	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultKind                   = BFGS
	DefaultMaxIterations          = 10000
	DefaultTolerance              = 1e-8
	DefaultRandomizationThreshold = 2500
	DefaultMinRelativeDecrease    = 1e-6
	DefaultMaxRandomizations      = 100
	DefaultRadius                 = 1.0
	DefaultRadiusDecay            = 0.97
	DefaultRandomizationRate      = 0.3
	DefaultGradientThreshold      = 1e-8
	DefaultLearningRate           = 0.01
	DefaultBeta1                  = 0.9
	DefaultBeta2                  = 0.999
	DefaultEpsilon                = 1e-8
	DefaultBatchSize              = 16
)

// Options holds optimizer configuration. Zero values are replaced by
// defaults in DefaultOptions; use the WithX helpers to override.
type Options struct {
	Kind                   Kind
	MaxIterations          int
	Tolerance              float64
	RandomizationThreshold int
	MinRelativeDecrease    float64
	MaxRandomizations      int
	Radius                 float64
	RadiusDecay            float64
	RandomizationRate      float64
	GradientThreshold      float64

	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	BatchSize    int

	Seed    int64
	Logger  *zap.Logger
	Metrics *Metrics

	// OnIteration observes every iteration: 1-based count, current cost and
	// the incumbent best.
	OnIteration func(iteration int, cost, best float64)
	// OnTransition observes every state change.
	OnTransition func(from, to State)
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Kind:                   DefaultKind,
		MaxIterations:          DefaultMaxIterations,
		Tolerance:              DefaultTolerance,
		RandomizationThreshold: DefaultRandomizationThreshold,
		MinRelativeDecrease:    DefaultMinRelativeDecrease,
		MaxRandomizations:      DefaultMaxRandomizations,
		Radius:                 DefaultRadius,
		RadiusDecay:            DefaultRadiusDecay,
		RandomizationRate:      DefaultRandomizationRate,
		GradientThreshold:      DefaultGradientThreshold,
		LearningRate:           DefaultLearningRate,
		Beta1:                  DefaultBeta1,
		Beta2:                  DefaultBeta2,
		Epsilon:                DefaultEpsilon,
		BatchSize:              DefaultBatchSize,
		Logger:                 zap.NewNop(),
	}
}

// WithKind selects the strategy. Panics on an unknown kind.
func WithKind(k Kind) Option {
	if !k.Valid() {
		panic(fmt.Sprintf("optimizer: WithKind(%d): unknown kind", uint8(k)))
	}
	return func(o *Options) { o.Kind = k }
}

// WithMaxIterations sets the iteration budget. Panics if n < 1.
func WithMaxIterations(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("optimizer: WithMaxIterations(%d): need at least one", n))
	}
	return func(o *Options) { o.MaxIterations = n }
}

// WithTolerance sets the convergence threshold on the cost. Panics if tol <= 0.
func WithTolerance(tol float64) Option {
	if !(tol > 0) {
		panic(fmt.Sprintf("optimizer: WithTolerance(%g): must be positive", tol))
	}
	return func(o *Options) { o.Tolerance = tol }
}

// WithRandomizationThreshold sets how many consecutive non-improving
// iterations are tolerated before randomizing. Panics if n < 1.
func WithRandomizationThreshold(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("optimizer: WithRandomizationThreshold(%d): need at least one", n))
	}
	return func(o *Options) { o.RandomizationThreshold = n }
}

// WithMinRelativeDecrease sets the relative drop that counts as improvement.
func WithMinRelativeDecrease(r float64) Option {
	if r < 0 {
		panic(fmt.Sprintf("optimizer: WithMinRelativeDecrease(%g): negative", r))
	}
	return func(o *Options) { o.MinRelativeDecrease = r }
}

// WithMaxRandomizations caps the number of perturbations. Zero disables them.
func WithMaxRandomizations(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("optimizer: WithMaxRandomizations(%d): negative", n))
	}
	return func(o *Options) { o.MaxRandomizations = n }
}

// WithRadius sets the initial perturbation radius (units of π) and its
// per-randomization decay factor in (0,1].
func WithRadius(radius, decay float64) Option {
	if !(radius > 0) || !(decay > 0) || decay > 1 {
		panic(fmt.Sprintf("optimizer: WithRadius(%g,%g): invalid", radius, decay))
	}
	return func(o *Options) {
		o.Radius = radius
		o.RadiusDecay = decay
	}
}

// WithRandomizationRate sets the probability that a parameter is perturbed.
func WithRandomizationRate(rate float64) Option {
	if !(rate > 0) || rate > 1 {
		panic(fmt.Sprintf("optimizer: WithRandomizationRate(%g): must be in (0,1]", rate))
	}
	return func(o *Options) { o.RandomizationRate = rate }
}

// WithGradientThreshold sets the gradient norm treated as a local minimum.
func WithGradientThreshold(g float64) Option {
	if g < 0 {
		panic(fmt.Sprintf("optimizer: WithGradientThreshold(%g): negative", g))
	}
	return func(o *Options) { o.GradientThreshold = g }
}

// WithAdam configures the ADAM step. Panics on out-of-range moments.
func WithAdam(learningRate, beta1, beta2 float64) Option {
	if !(learningRate > 0) || beta1 < 0 || beta1 >= 1 || beta2 < 0 || beta2 >= 1 {
		panic(fmt.Sprintf("optimizer: WithAdam(%g,%g,%g): invalid", learningRate, beta1, beta2))
	}
	return func(o *Options) {
		o.LearningRate = learningRate
		o.Beta1 = beta1
		o.Beta2 = beta2
	}
}

// WithBatchSize sets the ADAM_BATCHED window. Panics if n < 1.
func WithBatchSize(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("optimizer: WithBatchSize(%d): need at least one", n))
	}
	return func(o *Options) { o.BatchSize = n }
}

// WithSeed fixes the randomization stream (0 maps to a fixed default).
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithLogger routes progress logs; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics attaches prometheus instruments.
func WithMetrics(m *Metrics) Option { return func(o *Options) { o.Metrics = m } }

// WithOnIteration installs an iteration observer.
func WithOnIteration(fn func(iteration int, cost, best float64)) Option {
	return func(o *Options) { o.OnIteration = fn }
}

// WithOnTransition installs a state-transition observer.
func WithOnTransition(fn func(from, to State)) Option {
	return func(o *Options) { o.OnTransition = fn }
}
