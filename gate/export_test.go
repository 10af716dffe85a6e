// SPDX-License-Identifier: MIT

package gate_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/matrix"
)

// Every kind on 1..6 qubits: the matrix rebuilt from the exported records
// equals the gate's own matrix.
func TestRecords_RoundTripEveryKind(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for n := 1; n <= 6; n++ {
		for _, k := range gate.Kinds() {
			if k.TwoQubit() && n < 2 {
				continue
			}
			g := randomGate(t, rng, k, n)
			b, err := gate.NewBlock(n)
			require.NoError(t, err)
			require.NoError(t, b.AddGate(g))
			params := randomParams(rng, b.ParameterNum())

			recs, err := b.Records(params)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			require.Equal(t, k, recs[0].Kind)
			require.Equal(t, g.Target(), recs[0].Target)
			require.Equal(t, g.Control(), recs[0].Control)

			back, backParams, err := gate.FromRecords(n, recs)
			require.NoError(t, err)
			want, err := b.Matrix(params)
			require.NoError(t, err)
			got, err := back.Matrix(backParams)
			require.NoError(t, err)
			require.True(t, matrix.AllClose(want, got, 1e-3), "%v on %d qubits", k, n)
		}
	}
}

func (s *BlockSuite) TestRecordsFollowApplicationOrder() {
	params := randomParams(rand.New(rand.NewSource(8)), s.block.ParameterNum())
	recs, err := s.block.Records(params)
	s.Require().NoError(err)
	s.Require().Len(recs, 5)
	s.Equal("CNOT(t=1,c=0)", recs[2].String())
	s.Len(recs[0].Params, 3)
	s.Equal(params[3], recs[1].Params[0])

	back, backParams, err := gate.FromRecords(3, recs)
	s.Require().NoError(err)
	want, err := s.block.Matrix(params)
	s.Require().NoError(err)
	got, err := back.Matrix(backParams)
	s.Require().NoError(err)
	s.True(matrix.AllClose(want, got, 1e-12))

	_, err = s.block.Records(params[:2])
	s.ErrorIs(err, gate.ErrParameterCount)
}

func TestFromRecords_Invalid(t *testing.T) {
	_, _, err := gate.FromRecords(2, []gate.Record{{Kind: gate.CNOT, Target: 0, Control: 2}})
	require.ErrorIs(t, err, gate.ErrInvalidQubitIndex)

	_, _, err = gate.FromRecords(2, []gate.Record{{Kind: gate.RX, Target: 0, Control: gate.NoQubit}})
	require.ErrorIs(t, err, gate.ErrParameterCount)
}
