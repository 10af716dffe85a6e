// SPDX-License-Identifier: MIT

package optimizer

import (
	"errors"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

func newBFGS() optimize.Method { return &optimize.BFGS{} }

func newBFGS2() optimize.Method {
	return &optimize.BFGS{Linesearcher: &optimize.MoreThuente{}}
}

// runGonum runs one gonum minimization from x. The recorder forwards every
// major iteration to observe and aborts the run when the phase must end, so
// gonum's own iteration and convergence limits stay disabled.
// gonum evaluates Func and Grad separately; both are served by one FuncGrad
// call cached on the last point.
func (r *run) runGonum(x []float64, method optimize.Method) error {
	n := len(x)
	var (
		cacheX  = make([]float64, n)
		cacheG  = make([]float64, n)
		cacheF  float64
		cached  bool
		evalErr error
	)
	eval := func(at []float64) float64 {
		if cached && floats.Equal(at, cacheX) {
			return cacheF
		}
		f, err := r.p.FuncGrad(at, cacheG)
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.Inf(1)
		}
		copy(cacheX, at)
		cacheF, cached = f, true
		return f
	}
	problem := optimize.Problem{
		Func: eval,
		Grad: func(grad, at []float64) {
			eval(at)
			copy(grad, cacheG)
		},
		Status: func() (optimize.Status, error) {
			if evalErr != nil {
				return optimize.Failure, evalErr
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		Converger: optimize.NeverTerminate{},
		Recorder:  &recorder{r: r},
	}

	res, err := optimize.Minimize(problem, x, settings, method)
	if evalErr != nil {
		return evalErr
	}
	if err != nil && !errors.Is(err, errStop) {
		// Line-search failures end the phase like a local minimum.
		r.log.Debug("gonum run ended", zap.Error(err))
	}
	if res != nil {
		copy(x, res.X)
	}

	return nil
}

// recorder adapts observe to gonum's Recorder interface.
type recorder struct{ r *run }

func (rec *recorder) Init() error { return nil }

func (rec *recorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	if rec.r.observe(loc.X, loc.F) {
		return errStop
	}
	if loc.Gradient != nil && floats.Norm(loc.Gradient, 2) < rec.r.opts.GradientThreshold {
		return errStop
	}

	return nil
}
