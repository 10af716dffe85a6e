// SPDX-License-Identifier: MIT

package optimizer

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// minStepFraction floors the adaptive step at this fraction of LearningRate.
const minStepFraction = 1e-3

// runAdam runs ADAM from x, updating x in place. With batched set, each step
// updates only a window of BatchSize coordinates that cycles through the
// vector; the rest keep their values and moments.
//
// The step halves whenever the cost rises above the previous iterate, so the
// run settles instead of orbiting the minimum.
func (r *run) runAdam(x []float64, batched bool) error {
	n := len(x)
	m := make([]float64, n)
	v := make([]float64, n)
	grad := make([]float64, n)

	b1, b2, eps := r.opts.Beta1, r.opts.Beta2, r.opts.Epsilon
	lr := r.opts.LearningRate
	lrFloor := lr * minStepFraction
	batch := n
	if batched && r.opts.BatchSize < n {
		batch = r.opts.BatchSize
	}
	start := 0
	prev := math.Inf(1)

	for t := 1; ; t++ {
		f, err := r.p.FuncGrad(x, grad)
		if err != nil {
			return err
		}
		if r.observe(x, f) {
			return nil
		}
		if floats.Norm(grad, 2) < r.opts.GradientThreshold {
			return nil
		}
		if f > prev {
			lr = math.Max(lr/2, lrFloor)
		}
		prev = f

		b1t := 1 - math.Pow(b1, float64(t))
		b2t := 1 - math.Pow(b2, float64(t))
		for k := 0; k < batch; k++ {
			i := (start + k) % n
			g := grad[i]
			m[i] = b1*m[i] + (1-b1)*g
			v[i] = b2*v[i] + (1-b2)*g*g
			x[i] -= lr * (m[i] / b1t) / (math.Sqrt(v[i]/b2t) + eps)
		}
		start = (start + batch) % n
	}
}
