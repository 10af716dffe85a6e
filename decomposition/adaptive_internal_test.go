// SPDX-License-Identifier: MIT

package decomposition

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/qgd/cost"
	"github.com/katalvlaran/qgd/gate"
)

// adaptiveLayer builds U3(0)·U3(1)·Adaptive(t,c) followed by a layer that
// holds only Adaptive(t,c), on a three-qubit register.
func adaptiveLayer(t *testing.T, target, control int) *gate.Block {
	t.Helper()
	s, err := gate.NewBlock(3)
	require.NoError(t, err)

	first, err := gate.NewBlock(3)
	require.NoError(t, err)
	require.NoError(t, first.AddU3(target, true, true, true))
	require.NoError(t, first.AddU3(control, true, true, true))
	require.NoError(t, first.AddAdaptive(target, control))
	require.NoError(t, s.AddBlock(first))

	bare, err := gate.NewBlock(3)
	require.NoError(t, err)
	require.NoError(t, bare.AddAdaptive(target, control))
	require.NoError(t, s.AddBlock(bare))

	return s
}

func TestReplaceAdaptive_KeepsUnitary(t *testing.T) {
	cases := []struct {
		name     string
		theta    float64
		class    adaptiveClass
		entangle int
	}{
		{"zero", 0, adaptiveIdentity, 0},
		{"full turn", 4 * math.Pi, adaptiveIdentity, 0},
		{"pi", math.Pi, adaptiveCZ, 1},
		{"minus pi", -math.Pi, adaptiveCZ, 1},
		{"two pi", 2 * math.Pi, adaptivePhase, 0},
		{"three pi", 3 * math.Pi, adaptiveCZ, 1},
		{"general", 0.7, adaptiveGeneral, 2},
		{"general negative", -2.1, adaptiveGeneral, 2},
	}
	orientations := [][2]int{{0, 1}, {2, 0}}
	for _, tc := range cases {
		for _, o := range orientations {
			t.Run(tc.name, func(t *testing.T) {
				require.Equal(t, tc.class, classifyAdaptive(tc.theta))

				s := adaptiveLayer(t, o[0], o[1])
				params := make([]float64, s.ParameterNum())
				rng := rand.New(rand.NewSource(int64(o[0]*10 + o[1])))
				for i := range params {
					params[i] = 2 * math.Pi * rng.Float64()
				}
				params[6], params[7] = tc.theta, tc.theta

				native, nativeParams, err := replaceAdaptive(s, params)
				require.NoError(t, err)
				require.Len(t, nativeParams, native.ParameterNum())
				require.False(t, native.ContainsAdaptive())
				require.Equal(t, 2*tc.entangle, native.Counts().TwoQubit())
				require.Equal(t, 2*tc.entangle, penalty(s, params))

				V, err := s.Matrix(params)
				require.NoError(t, err)
				W, err := native.Matrix(nativeParams)
				require.NoError(t, err)
				e, err := cost.DecompositionError(V, W)
				require.NoError(t, err)
				require.Less(t, math.Abs(e), 1e-9, "circuit changed beyond global phase")
			})
		}
	}
}

func TestReplaceAdaptive_DropsEmptyLayers(t *testing.T) {
	s := adaptiveLayer(t, 0, 1)
	params := make([]float64, s.ParameterNum())
	native, nativeParams, err := replaceAdaptive(s, params)
	require.NoError(t, err)
	require.Equal(t, 1, native.Len())
	require.Len(t, nativeParams, 6)
}
