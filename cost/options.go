// SPDX-License-Identifier: MIT

// Package cost: functional configuration of the evaluator.
//   - Option / Options with documented defaults,
//   - WithX constructors that panic on nonsensical values (programmer error).
package cost

import (
	"fmt"
	"runtime"
)

// Defaults (single source of truth).
const (
	// DefaultVariant is the plain Frobenius-norm cost.
	DefaultVariant = FrobeniusNorm

	// DefaultTraceOffset selects the main diagonal.
	DefaultTraceOffset = 0

	// DefaultCorrection1Scale weights the off-diagonal term of Correction1 variants.
	DefaultCorrection1Scale = 1 / 1.7

	// DefaultCorrection2Scale weights the phase-spread term of Correction2 variants.
	DefaultCorrection2Scale = 1 / 2.0
)

// Options holds evaluator configuration.
type Options struct {
	Variant          Variant
	TraceOffset      int
	Correction1Scale float64
	Correction2Scale float64
	// Workers bounds the gradient fan-out; results do not depend on it.
	Workers int
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Variant:          DefaultVariant,
		TraceOffset:      DefaultTraceOffset,
		Correction1Scale: DefaultCorrection1Scale,
		Correction2Scale: DefaultCorrection2Scale,
		Workers:          runtime.GOMAXPROCS(0),
	}
}

// WithVariant selects the cost function. Panics on an unknown variant.
func WithVariant(v Variant) Option {
	if !v.Valid() {
		panic(fmt.Sprintf("cost: WithVariant(%d): unknown variant", uint8(v)))
	}
	return func(o *Options) { o.Variant = v }
}

// WithTraceOffset selects the shifted diagonal A[j+d, j]. Panics if d < 0.
func WithTraceOffset(d int) Option {
	if d < 0 {
		panic(fmt.Sprintf("cost: WithTraceOffset(%d): negative offset", d))
	}
	return func(o *Options) { o.TraceOffset = d }
}

// WithCorrectionScales sets the weights of the Correction1 and Correction2
// terms. Panics on negative weights.
func WithCorrectionScales(s1, s2 float64) Option {
	if s1 < 0 || s2 < 0 {
		panic(fmt.Sprintf("cost: WithCorrectionScales(%g,%g): negative scale", s1, s2))
	}
	return func(o *Options) {
		o.Correction1Scale = s1
		o.Correction2Scale = s2
	}
}

// WithWorkers bounds gradient parallelism. Panics if n < 1.
func WithWorkers(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("cost: WithWorkers(%d): need at least one worker", n))
	}
	return func(o *Options) { o.Workers = n }
}
