// SPDX-License-Identifier: MIT

package gate_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/qgd/gate"
	"github.com/katalvlaran/qgd/matrix"
)

type BlockSuite struct {
	suite.Suite
	block *gate.Block
}

// SetupTest builds a three-qubit structure with one nested layer:
// U3(0) · [RY(1), CNOT(t=1,c=0)] · RZ(2) · SYC(2,1).
func (s *BlockSuite) SetupTest() {
	b, err := gate.NewBlock(3)
	s.Require().NoError(err)
	s.Require().NoError(b.AddU3(0, true, true, true))

	layer, err := gate.NewBlock(3)
	s.Require().NoError(err)
	s.Require().NoError(layer.AddRY(1))
	s.Require().NoError(layer.AddCNOT(1, 0))
	s.Require().NoError(b.AddBlock(layer))

	s.Require().NoError(b.AddRZ(2))
	s.Require().NoError(b.AddSYC(2, 1))
	s.block = b
}

func (s *BlockSuite) TestParameterLayout() {
	s.Equal(5, s.block.ParameterNum())
	s.Equal(4, s.block.Len())

	flat := s.block.Flatten()
	s.Require().Len(flat, 5)
	kinds := []gate.Kind{gate.U3, gate.RY, gate.CNOT, gate.RZ, gate.SYC}
	offsets := []int{0, 3, 4, 4, 5}
	for i, e := range flat {
		s.Equal(kinds[i], e.Gate.Kind())
		s.Equal(offsets[i], e.Offset)
	}

	off, err := s.block.ParameterOffset(2)
	s.Require().NoError(err)
	s.Equal(4, off)

	rev := s.block.FlattenReversed()
	s.Equal(gate.SYC, rev[0].Gate.Kind())
	s.Equal(gate.U3, rev[4].Gate.Kind())
}

func (s *BlockSuite) TestMatrixComposesFlattenedGatesInOrder() {
	rng := rand.New(rand.NewSource(21))
	params := randomParams(rng, s.block.ParameterNum())

	got, err := s.block.Matrix(params)
	s.Require().NoError(err)

	want, _ := matrix.Identity(8)
	for _, e := range s.block.Flatten() {
		gm, err := e.Gate.Matrix(e.Params(params))
		s.Require().NoError(err)
		want, err = matrix.Mul(gm, want)
		s.Require().NoError(err)
	}
	s.True(matrix.AllClose(got, want, 1e-12))

	ok, err := matrix.IsUnitary(got, 1e-10)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *BlockSuite) TestReorderIsSelfInverse() {
	orig := s.block.Clone()
	perm := []int{2, 0, 1}

	s.Require().NoError(s.block.Reorder(perm))
	s.False(gate.Equivalent(orig, s.block))
	s.Equal(2, s.block.Flatten()[0].Gate.Target())

	s.Require().NoError(s.block.Reorder(gate.InversePermutation(perm)))
	s.True(gate.Equivalent(orig, s.block))
}

func (s *BlockSuite) TestReorderRejectsNonPermutation() {
	s.ErrorIs(s.block.Reorder([]int{0, 0, 1}), gate.ErrInvalidPermutation)
	s.ErrorIs(s.block.Reorder([]int{0, 1}), gate.ErrInvalidPermutation)
}

func (s *BlockSuite) TestCloneIsIndependent() {
	c := s.block.Clone()
	s.Require().NoError(c.Reorder([]int{1, 2, 0}))
	s.Equal(0, s.block.Flatten()[0].Gate.Target())
}

func (s *BlockSuite) TestInsertRemove() {
	s.Require().NoError(s.block.RemoveNode(1))
	s.Equal(3, s.block.Len())
	s.Equal(4, s.block.ParameterNum())

	g, err := gate.New(gate.CZ, 3, 0, 2)
	s.Require().NoError(err)
	s.Require().NoError(s.block.InsertNode(0, g))
	n, err := s.block.Node(0)
	s.Require().NoError(err)
	s.Equal(g, n)

	s.ErrorIs(s.block.RemoveNode(9), gate.ErrNodeIndex)
	other, _ := gate.NewBlock(2)
	s.ErrorIs(s.block.AddBlock(other), gate.ErrQubitNumMismatch)
}

func (s *BlockSuite) TestNestingCycleRejected() {
	s.ErrorIs(s.block.AddBlock(s.block), gate.ErrNestingCycle)

	layer, err := s.block.Node(1)
	s.Require().NoError(err)
	inner := layer.(*gate.Block)
	s.ErrorIs(inner.AddBlock(s.block), gate.ErrNestingCycle, "indirect cycle")
	s.ErrorIs(inner.InsertNode(0, s.block), gate.ErrNestingCycle)

	wrapper, err := gate.NewBlock(3)
	s.Require().NoError(err)
	s.Require().NoError(wrapper.AddBlock(s.block))
	s.ErrorIs(inner.Combine(wrapper), gate.ErrNestingCycle)

	s.Equal(2, inner.Len(), "rejected nodes must not be added")
	s.Equal(5, s.block.ParameterNum())

	// The same layer twice is sharing, not a cycle.
	s.NoError(s.block.AddBlock(inner))
	s.Equal(6, s.block.ParameterNum())
}

func (s *BlockSuite) TestCountsAndQubits() {
	c := s.block.Counts()
	s.Equal(5, c.Total)
	s.Equal(2, c.TwoQubit())
	s.Equal("U3:1 RY:1 RZ:1 CNOT:1 SYC:1", c.String())
	s.Equal([]int{0, 1, 2}, s.block.InvolvedQubits())
	s.False(s.block.ContainsAdaptive())
}

func (s *BlockSuite) TestCodecRoundTrip() {
	params := randomParams(rand.New(rand.NewSource(4)), s.block.ParameterNum())
	var buf bytes.Buffer
	s.Require().NoError(gate.EncodeBlock(&buf, s.block, params))

	back, gotParams, err := gate.DecodeBlock(&buf)
	s.Require().NoError(err)
	s.True(gate.Equivalent(s.block, back))
	s.Equal(params, gotParams)
	s.Equal(4, back.Len(), "nested layer survives as one node")
}

func (s *BlockSuite) TestCodecRejectsGarbage() {
	_, _, err := gate.DecodeBlock(bytes.NewReader([]byte("QGDX\x01")))
	s.ErrorIs(err, gate.ErrCorruptStructure)

	var buf bytes.Buffer
	s.Require().NoError(gate.EncodeBlock(&buf, s.block, nil))
	raw := buf.Bytes()
	_, _, err = gate.DecodeBlock(bytes.NewReader(raw[:len(raw)-3]))
	s.Error(err)
}

func TestBlockSuite(t *testing.T) {
	suite.Run(t, new(BlockSuite))
}

func TestBlock_CircuitOrder(t *testing.T) {
	b, err := gate.NewBlock(2)
	require.NoError(t, err)
	require.NoError(t, b.AddX(0))
	require.NoError(t, b.AddCNOT(1, 0))

	m, err := b.Matrix(nil)
	require.NoError(t, err)
	// |00⟩ → X on q0 → |01⟩ → CNOT(c=q0,t=q1) → |11⟩
	v, err := m.At(3, 0)
	require.NoError(t, err)
	require.Equal(t, complex(1, 0), v)
}

func TestBlock_ParameterCountMismatch(t *testing.T) {
	b, err := gate.NewBlock(1)
	require.NoError(t, err)
	require.NoError(t, b.AddRX(0))
	_, err = b.Matrix([]float64{1, 2})
	require.ErrorIs(t, err, gate.ErrParameterCount)
}
