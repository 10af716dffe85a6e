// SPDX-License-Identifier: MIT

package optimizer_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/qgd/optimizer"
)

// quadratic is Σ (x_i − c_i)² with its exact gradient.
func quadratic(c []float64) optimizer.Problem {
	return optimizer.Problem{
		FuncGrad: func(x, grad []float64) (float64, error) {
			var f float64
			for i := range x {
				d := x[i] - c[i]
				f += d * d
				grad[i] = 2 * d
			}
			return f, nil
		},
	}
}

// rastrigin has many local minima; the global one is 0 at the origin.
func rastrigin() optimizer.Problem {
	return optimizer.Problem{
		FuncGrad: func(x, grad []float64) (float64, error) {
			f := 10 * float64(len(x))
			for i, v := range x {
				f += v*v - 10*math.Cos(2*math.Pi*v)
				grad[i] = 2*v + 20*math.Pi*math.Sin(2*math.Pi*v)
			}
			return f, nil
		},
	}
}

func TestMinimize_QuasiNewtonConverges(t *testing.T) {
	c := []float64{0.5, -1.25, 2}
	for _, k := range []optimizer.Kind{optimizer.BFGS, optimizer.BFGS2} {
		t.Run(k.String(), func(t *testing.T) {
			res, err := optimizer.Minimize(quadratic(c), []float64{0, 0, 0},
				optimizer.WithKind(k), optimizer.WithTolerance(1e-12))
			require.NoError(t, err)
			require.Equal(t, optimizer.StateConverged, res.State)
			require.True(t, res.Converged())
			require.InDeltaSlice(t, c, res.X, 1e-5)
		})
	}
}

func TestMinimize_AdamConverges(t *testing.T) {
	c := []float64{1, -2, 0.5}
	for _, k := range []optimizer.Kind{optimizer.ADAM, optimizer.ADAMBatched} {
		t.Run(k.String(), func(t *testing.T) {
			res, err := optimizer.Minimize(quadratic(c), []float64{0, 0, 0},
				optimizer.WithKind(k),
				optimizer.WithAdam(0.05, 0.9, 0.999),
				optimizer.WithBatchSize(1),
				optimizer.WithMaxIterations(50000),
				optimizer.WithTolerance(1e-6),
			)
			require.NoError(t, err)
			require.Less(t, res.Cost, 1e-6)
		})
	}
}

func TestMinimize_StagnationTriggersRandomizing(t *testing.T) {
	const threshold = 5
	flat := optimizer.Problem{
		FuncGrad: func(x, grad []float64) (float64, error) {
			for i := range grad {
				grad[i] = 1
			}
			return 1, nil
		},
	}

	type step struct{ from, to optimizer.State }
	var (
		transitions []step
		iterations  int
		atRandomize []int
	)
	res, err := optimizer.Minimize(flat, []float64{0, 0},
		optimizer.WithKind(optimizer.ADAM),
		optimizer.WithRandomizationThreshold(threshold),
		optimizer.WithMaxIterations(30),
		optimizer.WithMaxRandomizations(10),
		optimizer.WithOnIteration(func(it int, _, _ float64) { iterations = it }),
		optimizer.WithOnTransition(func(from, to optimizer.State) {
			transitions = append(transitions, step{from, to})
			if to == optimizer.StateRandomizing {
				atRandomize = append(atRandomize, iterations)
			}
		}),
	)
	require.NoError(t, err)

	require.Equal(t, step{optimizer.StateInit, optimizer.StateIterating}, transitions[0])
	require.Equal(t, step{optimizer.StateIterating, optimizer.StateRandomizing}, transitions[1])
	require.Equal(t, []int{6, 12, 18, 24}, atRandomize)
	require.Equal(t, optimizer.StateExhausted, res.State)
	require.Equal(t, 30, res.Iterations)
	require.Equal(t, 4, res.Randomizations)
	require.Equal(t, step{optimizer.StateIterating, optimizer.StateExhausted}, transitions[len(transitions)-1])
}

func TestMinimize_BestCostNeverIncreases(t *testing.T) {
	var (
		lastBest = math.Inf(1)
		observed []float64
	)
	res, err := optimizer.Minimize(rastrigin(), []float64{3.3, -2.7},
		optimizer.WithKind(optimizer.BFGS),
		optimizer.WithRandomizationThreshold(20),
		optimizer.WithMaxIterations(600),
		optimizer.WithSeed(7),
		optimizer.WithOnIteration(func(_ int, cost, best float64) {
			require.LessOrEqual(t, best, lastBest)
			require.LessOrEqual(t, best, cost)
			lastBest = best
			observed = append(observed, cost)
		}),
	)
	require.NoError(t, err)
	require.NotEmpty(t, observed)
	for _, c := range observed {
		require.LessOrEqual(t, res.Cost, c)
	}
	require.Greater(t, res.Randomizations, 0)
}

func TestMinimize_DeterministicForSeed(t *testing.T) {
	run := func() optimizer.Result {
		res, err := optimizer.Minimize(rastrigin(), []float64{2.2, 1.9, -3.1},
			optimizer.WithKind(optimizer.BFGS2),
			optimizer.WithRandomizationThreshold(10),
			optimizer.WithMaxIterations(300),
			optimizer.WithSeed(99),
		)
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	require.Equal(t, a.X, b.X)
	require.Equal(t, a.Cost, b.Cost)
	require.Equal(t, a.Randomizations, b.Randomizations)
}

func TestMinimize_EmptyParameterVector(t *testing.T) {
	constant := func(v float64) optimizer.Problem {
		return optimizer.Problem{FuncGrad: func(_, _ []float64) (float64, error) { return v, nil }}
	}
	res, err := optimizer.Minimize(constant(0), nil)
	require.NoError(t, err)
	require.Equal(t, optimizer.StateConverged, res.State)

	res, err = optimizer.Minimize(constant(0.5), nil)
	require.NoError(t, err)
	require.Equal(t, optimizer.StateExhausted, res.State)
	require.Equal(t, 0.5, res.Cost)
}

func TestMinimize_ObjectiveErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	p := optimizer.Problem{FuncGrad: func(x, grad []float64) (float64, error) {
		calls++
		if calls > 1 {
			return 0, boom
		}
		return 1, nil
	}}
	for _, k := range []optimizer.Kind{optimizer.BFGS, optimizer.ADAM} {
		calls = 0
		_, err := optimizer.Minimize(p, []float64{1}, optimizer.WithKind(k))
		require.ErrorIs(t, err, boom, k.String())
	}

	_, err := optimizer.Minimize(optimizer.Problem{}, []float64{1})
	require.ErrorIs(t, err, optimizer.ErrNilProblem)
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"BFGS", "adam", "BFGS2", "adam_batched"} {
		k, err := optimizer.ParseKind(name)
		require.NoError(t, err)
		require.True(t, k.Valid())
	}
	_, err := optimizer.ParseKind("lbfgs")
	require.ErrorIs(t, err, optimizer.ErrUnknownKind)
}

func TestDeriveSeed_Decorrelates(t *testing.T) {
	seen := map[int64]bool{}
	for s := uint64(0); s < 64; s++ {
		v := optimizer.DeriveSeed(42, s)
		require.False(t, seen[v])
		seen[v] = true
	}
	require.Equal(t, optimizer.DeriveSeed(1, 2), optimizer.DeriveSeed(1, 2))
}
