// SPDX-License-Identifier: MIT

// Package decomposition: functional configuration of the driver.
//
// Options follow the record-and-surface pattern: a WithX helper that receives
// an out-of-range value records ErrOptionViolation, and New reports it as
// ErrInvalidInput instead of panicking.
package decomposition

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/qgd/cost"
	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/optimizer"
)

// Defaults.
const (
	// DefaultTolerance is the cost below which a structure counts as
	// converged; the trace error of the result is then about its square root.
	DefaultTolerance = 1e-8

	DefaultLevelLimitMin = 0
	DefaultLevelLimitMax = 8

	// DefaultIterationLoops is how many window sweeps in a row may fail to
	// lower the cost before the windows give way to a joint optimization.
	DefaultIterationLoops = 4

	// DefaultCompressionRounds bounds the layer-removal rounds; a round that
	// removes nothing three times in a row ends compression early.
	DefaultCompressionRounds = 25

	// DefaultBFGSQubitLimit is the largest register for which BFGS is the
	// default strategy; larger registers default to ADAM.
	DefaultBFGSQubitLimit = 5
)

// Options holds driver configuration.
type Options struct {
	Optimizer              optimizer.Kind
	CostVariant            cost.Variant
	TraceOffset            int
	Tolerance              float64
	MaxIterations          int
	RandomizationThreshold int
	MaxRandomizations      int
	Radius                 float64

	// LearningRate is the ADAM step size; BatchSize is the number of
	// parameters ADAM_BATCHED updates per iteration.
	LearningRate float64
	BatchSize    int

	// OptimizationBlocks is the number of consecutive top-level layers whose
	// parameters are optimized jointly; 0 optimizes all layers together.
	OptimizationBlocks int
	IterationLoops     int

	LevelLimitMin     int
	LevelLimitMax     int
	CompressionRounds int

	// TopologyPairs restricts adaptive layers to these qubit pairs; nil
	// allows every pair.
	TopologyPairs [][2]int

	// CustomStructure maps a qubit count to the structure used for it.
	CustomStructure map[int]*gate.Block

	// AcceleratorNum requests offload devices. No backend is compiled in,
	// so a positive value only logs the host fallback.
	AcceleratorNum int

	// Workers bounds gradient and candidate fan-out; results do not depend on it.
	Workers int

	Seed    int64
	Logger  *zap.Logger
	Metrics *optimizer.Metrics

	optimizerSet bool
	err          error
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the documented defaults. The optimizer kind is
// resolved in New from the register size unless WithOptimizer is given.
func DefaultOptions() Options {
	return Options{
		Optimizer:              optimizer.BFGS,
		CostVariant:            cost.DefaultVariant,
		TraceOffset:            cost.DefaultTraceOffset,
		Tolerance:              DefaultTolerance,
		MaxIterations:          optimizer.DefaultMaxIterations,
		RandomizationThreshold: optimizer.DefaultRandomizationThreshold,
		MaxRandomizations:      optimizer.DefaultMaxRandomizations,
		Radius:                 optimizer.DefaultRadius,
		LearningRate:           optimizer.DefaultLearningRate,
		BatchSize:              optimizer.DefaultBatchSize,
		IterationLoops:         DefaultIterationLoops,
		LevelLimitMin:          DefaultLevelLimitMin,
		LevelLimitMax:          DefaultLevelLimitMax,
		CompressionRounds:      DefaultCompressionRounds,
		Workers:                cost.DefaultOptions().Workers,
		Logger:                 zap.NewNop(),
	}
}

func (o *Options) violate(format string, args ...any) {
	if o.err == nil {
		o.err = fmt.Errorf(format+": %w", append(args, ErrOptionViolation)...)
	}
}

// validate checks cross-field constraints after all options are applied.
func (o *Options) validate() error {
	if o.err != nil {
		return o.err
	}
	if o.LevelLimitMin > o.LevelLimitMax {
		return fmt.Errorf("level limits %d > %d: %w", o.LevelLimitMin, o.LevelLimitMax, ErrOptionViolation)
	}

	return nil
}

// Apply applies opts over DefaultOptions and reports the first invalid
// value, wrapped as ErrInvalidInput.
func Apply(opts ...Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return Options{}, invalidInput("Apply", err)
	}

	return o, nil
}

// WithOptimizer selects the optimization strategy.
func WithOptimizer(k optimizer.Kind) Option {
	return func(o *Options) {
		if !k.Valid() {
			o.violate("WithOptimizer(%d)", uint8(k))
			return
		}
		o.Optimizer, o.optimizerSet = k, true
	}
}

// WithCostVariant selects the cost function.
func WithCostVariant(v cost.Variant) Option {
	return func(o *Options) {
		if !v.Valid() {
			o.violate("WithCostVariant(%d)", uint8(v))
			return
		}
		o.CostVariant = v
	}
}

// WithTraceOffset selects the diagonal compared against the target columns.
func WithTraceOffset(d int) Option {
	return func(o *Options) {
		if d < 0 {
			o.violate("WithTraceOffset(%d)", d)
			return
		}
		o.TraceOffset = d
	}
}

// WithTolerance sets the convergence threshold on the cost.
func WithTolerance(tol float64) Option {
	return func(o *Options) {
		if !(tol > 0) {
			o.violate("WithTolerance(%g)", tol)
			return
		}
		o.Tolerance = tol
	}
}

// WithMaxIterations sets the iteration budget of every optimizer run.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.violate("WithMaxIterations(%d)", n)
			return
		}
		o.MaxIterations = n
	}
}

// WithRandomizationThreshold sets the stall length that triggers a perturbation.
func WithRandomizationThreshold(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.violate("WithRandomizationThreshold(%d)", n)
			return
		}
		o.RandomizationThreshold = n
	}
}

// WithMaxRandomizations caps perturbations per optimizer run.
func WithMaxRandomizations(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("WithMaxRandomizations(%d)", n)
			return
		}
		o.MaxRandomizations = n
	}
}

// WithRandomizedRadius sets the initial perturbation radius in units of π.
func WithRandomizedRadius(r float64) Option {
	return func(o *Options) {
		if !(r > 0) {
			o.violate("WithRandomizedRadius(%g)", r)
			return
		}
		o.Radius = r
	}
}

// WithLearningRate sets the ADAM step size.
func WithLearningRate(lr float64) Option {
	return func(o *Options) {
		if !(lr > 0) {
			o.violate("WithLearningRate(%g)", lr)
			return
		}
		o.LearningRate = lr
	}
}

// WithBatchSize sets how many parameters ADAM_BATCHED updates per iteration.
func WithBatchSize(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.violate("WithBatchSize(%d)", n)
			return
		}
		o.BatchSize = n
	}
}

// WithOptimizationBlocks sets how many layers are optimized jointly (0 = all).
func WithOptimizationBlocks(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("WithOptimizationBlocks(%d)", n)
			return
		}
		o.OptimizationBlocks = n
	}
}

// WithIterationLoops sets how many window sweeps without progress end the
// windowed phase.
func WithIterationLoops(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.violate("WithIterationLoops(%d)", n)
			return
		}
		o.IterationLoops = n
	}
}

// WithLevelLimits bounds the number of adaptive sweeps tried.
func WithLevelLimits(minLevel, maxLevel int) Option {
	return func(o *Options) {
		if minLevel < 0 || maxLevel < 1 {
			o.violate("WithLevelLimits(%d,%d)", minLevel, maxLevel)
			return
		}
		o.LevelLimitMin, o.LevelLimitMax = minLevel, maxLevel
	}
}

// WithCompressionRounds bounds layer-removal rounds; 0 disables compression.
func WithCompressionRounds(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("WithCompressionRounds(%d)", n)
			return
		}
		o.CompressionRounds = n
	}
}

// WithTopology restricts two-qubit adaptive gates to the given pairs; nil
// restores all-to-all coupling. New rejects pairs outside the register and
// graphs that leave a qubit unreachable, an empty list included.
func WithTopology(pairs [][2]int) Option {
	return func(o *Options) {
		if pairs == nil {
			o.TopologyPairs = nil
			return
		}
		o.TopologyPairs = append(make([][2]int, 0, len(pairs)), pairs...)
	}
}

// WithCustomStructure supplies explicit structures keyed by qubit count and
// switches the driver to custom-structure mode.
func WithCustomStructure(structures map[int]*gate.Block) Option {
	return func(o *Options) {
		o.CustomStructure = structures
	}
}

// WithAcceleratorNum requests k offload devices (a hint only).
func WithAcceleratorNum(k int) Option {
	return func(o *Options) {
		if k < 0 {
			o.violate("WithAcceleratorNum(%d)", k)
			return
		}
		o.AcceleratorNum = k
	}
}

// WithWorkers bounds internal fan-out.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.violate("WithWorkers(%d)", n)
			return
		}
		o.Workers = n
	}
}

// WithSeed fixes every random stream of the run.
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithLogger routes progress logs; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics attaches optimizer instruments shared by every run.
func WithMetrics(m *optimizer.Metrics) Option { return func(o *Options) { o.Metrics = m } }
