// SPDX-License-Identifier: MIT
// Package gate: block container.
//
// A Block is an ordered tree of gates and nested blocks sharing one register
// size. Nodes are kept in circuit order: node 0 acts first, so the composed
// matrix of nodes N_0..N_{k-1} is N_{k-1}·…·N_1·N_0. Parameters follow the
// same depth-first order, each node owning a contiguous slice.

package gate

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/qgd/matrix"
)

// Node is either a *Gate or a *Block. The set is closed: unexported methods
// keep foreign types out of the tree.
type Node interface {
	ParameterNum() int
	QubitNum() int
	ApplyTo(params []float64, m *matrix.Dense) error

	cloneNode() Node
	reorder(perm []int)
	flatten(offset int, out []Element) []Element
}

// Element is one leaf of a flattened block: the gate and the offset of its
// first parameter in the block's parameter vector.
type Element struct {
	Gate   *Gate
	Offset int
}

// Params returns the parameter slice of the element inside params.
func (e Element) Params(params []float64) []float64 {
	return params[e.Offset : e.Offset+e.Gate.ParameterNum()]
}

// Block is an ordered sequence of gates and nested blocks.
type Block struct {
	qubitNum int
	nodes    []Node
}

// NewBlock creates an empty block over qubitNum qubits.
func NewBlock(qubitNum int) (*Block, error) {
	if qubitNum <= 0 {
		return nil, fmt.Errorf("NewBlock(%d): %w", qubitNum, ErrInvalidQubitIndex)
	}

	return &Block{qubitNum: qubitNum}, nil
}

// QubitNum returns the register size of the block.
func (b *Block) QubitNum() int { return b.qubitNum }

// Len returns the number of top-level nodes (layers).
func (b *Block) Len() int { return len(b.nodes) }

// Node returns the i-th top-level node.
func (b *Block) Node(i int) (Node, error) {
	if i < 0 || i >= len(b.nodes) {
		return nil, fmt.Errorf("Block.Node(%d): %w", i, ErrNodeIndex)
	}

	return b.nodes[i], nil
}

// Nodes returns a copy of the top-level node list.
func (b *Block) Nodes() []Node {
	out := make([]Node, len(b.nodes))
	copy(out, b.nodes)

	return out
}

// ParameterNum sums the free parameters over the whole tree.
func (b *Block) ParameterNum() int {
	n := 0
	for _, nd := range b.nodes {
		n += nd.ParameterNum()
	}

	return n
}

// ParameterOffset returns the index of the first parameter of top-level node i.
// ParameterOffset(Len()) equals ParameterNum().
func (b *Block) ParameterOffset(i int) (int, error) {
	if i < 0 || i > len(b.nodes) {
		return 0, fmt.Errorf("Block.ParameterOffset(%d): %w", i, ErrNodeIndex)
	}
	off := 0
	for _, nd := range b.nodes[:i] {
		off += nd.ParameterNum()
	}

	return off, nil
}

func (b *Block) add(kind Kind, target, control int) error {
	g, err := New(kind, b.qubitNum, target, control)
	if err != nil {
		return err
	}
	b.nodes = append(b.nodes, g)

	return nil
}

// AddU3 appends a U3 gate whose θ, φ, λ are free according to the flags.
func (b *Block) AddU3(target int, theta, phi, lambda bool) error {
	g, err := NewU3(b.qubitNum, target, theta, phi, lambda)
	if err != nil {
		return err
	}
	b.nodes = append(b.nodes, g)

	return nil
}

// AddRX appends an RX rotation.
func (b *Block) AddRX(target int) error { return b.add(RX, target, NoQubit) }

// AddRY appends an RY rotation.
func (b *Block) AddRY(target int) error { return b.add(RY, target, NoQubit) }

// AddRZ appends an RZ rotation.
func (b *Block) AddRZ(target int) error { return b.add(RZ, target, NoQubit) }

// AddX appends a Pauli X.
func (b *Block) AddX(target int) error { return b.add(X, target, NoQubit) }

// AddY appends a Pauli Y.
func (b *Block) AddY(target int) error { return b.add(Y, target, NoQubit) }

// AddZ appends a Pauli Z.
func (b *Block) AddZ(target int) error { return b.add(Z, target, NoQubit) }

// AddSX appends a √X.
func (b *Block) AddSX(target int) error { return b.add(SX, target, NoQubit) }

// AddCNOT appends a CNOT.
func (b *Block) AddCNOT(target, control int) error { return b.add(CNOT, target, control) }

// AddCZ appends a CZ.
func (b *Block) AddCZ(target, control int) error { return b.add(CZ, target, control) }

// AddCH appends a controlled Hadamard.
func (b *Block) AddCH(target, control int) error { return b.add(CH, target, control) }

// AddCRY appends a controlled RY.
func (b *Block) AddCRY(target, control int) error { return b.add(CRY, target, control) }

// AddSYC appends a Sycamore gate.
func (b *Block) AddSYC(target, control int) error { return b.add(SYC, target, control) }

// AddAdaptive appends an adaptive two-qubit primitive.
func (b *Block) AddAdaptive(target, control int) error { return b.add(Adaptive, target, control) }

// AddGate appends an existing gate; its register must match the block's.
func (b *Block) AddGate(g *Gate) error {
	if g == nil || g.qubitNum != b.qubitNum {
		return fmt.Errorf("Block.AddGate: %w", ErrQubitNumMismatch)
	}
	b.nodes = append(b.nodes, g)

	return nil
}

// AddBlock appends child as a nested node. The child is shared, not copied.
func (b *Block) AddBlock(child *Block) error {
	if child == nil || child.qubitNum != b.qubitNum {
		return fmt.Errorf("Block.AddBlock: %w", ErrQubitNumMismatch)
	}
	if nests(child, b) {
		return fmt.Errorf("Block.AddBlock: %w", ErrNestingCycle)
	}
	b.nodes = append(b.nodes, child)

	return nil
}

// Combine appends every top-level node of other (shared, not copied).
func (b *Block) Combine(other *Block) error {
	if other == nil || other.qubitNum != b.qubitNum {
		return fmt.Errorf("Block.Combine: %w", ErrQubitNumMismatch)
	}
	for _, nd := range other.nodes {
		if nb, ok := nd.(*Block); ok && nests(nb, b) {
			return fmt.Errorf("Block.Combine: %w", ErrNestingCycle)
		}
	}
	b.nodes = append(b.nodes, other.nodes...)

	return nil
}

// nests reports whether n is b or holds b at any depth. Trees built through
// the Add methods are acyclic, so the walk terminates.
func nests(n, b *Block) bool {
	if n == b {
		return true
	}
	for _, nd := range n.nodes {
		if nb, ok := nd.(*Block); ok && nests(nb, b) {
			return true
		}
	}

	return false
}

// InsertNode inserts n before position i (i == Len() appends).
func (b *Block) InsertNode(i int, n Node) error {
	if i < 0 || i > len(b.nodes) {
		return fmt.Errorf("Block.InsertNode(%d): %w", i, ErrNodeIndex)
	}
	if n == nil || n.QubitNum() != b.qubitNum {
		return fmt.Errorf("Block.InsertNode: %w", ErrQubitNumMismatch)
	}
	if nb, ok := n.(*Block); ok && nests(nb, b) {
		return fmt.Errorf("Block.InsertNode: %w", ErrNestingCycle)
	}
	b.nodes = append(b.nodes, nil)
	copy(b.nodes[i+1:], b.nodes[i:])
	b.nodes[i] = n

	return nil
}

// RemoveNode deletes the top-level node at position i.
func (b *Block) RemoveNode(i int) error {
	if i < 0 || i >= len(b.nodes) {
		return fmt.Errorf("Block.RemoveNode(%d): %w", i, ErrNodeIndex)
	}
	b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)

	return nil
}

// ApplyTo left-multiplies m by the block, applying nodes in circuit order.
func (b *Block) ApplyTo(params []float64, m *matrix.Dense) error {
	if len(params) != b.ParameterNum() {
		return fmt.Errorf("Block.ApplyTo: got %d want %d: %w", len(params), b.ParameterNum(), ErrParameterCount)
	}
	off := 0
	for _, nd := range b.nodes {
		n := nd.ParameterNum()
		if err := nd.ApplyTo(params[off:off+n], m); err != nil {
			return err
		}
		off += n
	}

	return nil
}

// Matrix returns the composed 2^n×2^n unitary of the block.
func (b *Block) Matrix(params []float64) (*matrix.Dense, error) {
	m, err := matrix.Identity(1 << b.qubitNum)
	if err != nil {
		return nil, err
	}
	if err = b.ApplyTo(params, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Flatten returns the leaf gates in application order with their
// parameter offsets.
func (b *Block) Flatten() []Element {
	return b.flatten(0, nil)
}

// FlattenReversed returns the leaves last-applied-first, the order in which
// a matrix product is written left to right.
func (b *Block) FlattenReversed() []Element {
	out := b.Flatten()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out
}

// Clone deep-copies the tree; gates and nested blocks are not shared.
func (b *Block) Clone() *Block {
	out := &Block{qubitNum: b.qubitNum, nodes: make([]Node, len(b.nodes))}
	for i, nd := range b.nodes {
		out.nodes[i] = nd.cloneNode()
	}

	return out
}

// Reorder relabels every qubit q as perm[q] across the tree in place.
// Reordering by perm and then by its inverse restores the block.
func (b *Block) Reorder(perm []int) error {
	if len(perm) != b.qubitNum {
		return fmt.Errorf("Block.Reorder: %d entries for %d qubits: %w", len(perm), b.qubitNum, ErrInvalidPermutation)
	}
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return fmt.Errorf("Block.Reorder(%v): %w", perm, ErrInvalidPermutation)
		}
		seen[p] = true
	}
	// Shared subtrees must be relabeled once.
	visited := make(map[Node]bool)
	b.reorderOnce(perm, visited)

	return nil
}

func (b *Block) reorderOnce(perm []int, visited map[Node]bool) {
	for _, nd := range b.nodes {
		if visited[nd] {
			continue
		}
		visited[nd] = true
		if child, ok := nd.(*Block); ok {
			child.reorderOnce(perm, visited)
			continue
		}
		nd.reorder(perm)
	}
}

// InversePermutation returns p⁻¹ such that p⁻¹[p[q]] == q.
func InversePermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for q, p := range perm {
		inv[p] = q
	}

	return inv
}

// InvolvedQubits returns the sorted set of qubits touched by any gate.
func (b *Block) InvolvedQubits() []int {
	set := make(map[int]struct{})
	for _, e := range b.Flatten() {
		set[e.Gate.target] = struct{}{}
		if e.Gate.control != NoQubit {
			set[e.Gate.control] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for q := range set {
		out = append(out, q)
	}
	sort.Ints(out)

	return out
}

// ContainsAdaptive reports whether any leaf is an Adaptive gate.
func (b *Block) ContainsAdaptive() bool {
	for _, e := range b.Flatten() {
		if e.Gate.kind == Adaptive {
			return true
		}
	}

	return false
}

// Equivalent reports whether a and b are structurally interchangeable: same
// register, same flattened kinds and qubits, same parameter count.
func Equivalent(a, b *Block) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.qubitNum != b.qubitNum || a.ParameterNum() != b.ParameterNum() {
		return false
	}
	fa, fb := a.Flatten(), b.Flatten()
	if len(fa) != len(fb) {
		return false
	}
	for i := range fa {
		ga, gb := fa[i].Gate, fb[i].Gate
		if ga.kind != gb.kind || ga.target != gb.target || ga.control != gb.control || ga.free != gb.free {
			return false
		}
	}

	return true
}

// String lists the flattened gates in application order.
func (b *Block) String() string {
	s := fmt.Sprintf("Block(%d qubits)[", b.qubitNum)
	for i, e := range b.Flatten() {
		if i > 0 {
			s += " "
		}
		s += e.Gate.String()
	}

	return s + "]"
}

func (b *Block) cloneNode() Node { return b.Clone() }

func (b *Block) reorder(perm []int) {
	for _, nd := range b.nodes {
		nd.reorder(perm)
	}
}

func (b *Block) flatten(offset int, out []Element) []Element {
	for _, nd := range b.nodes {
		out = nd.flatten(offset, out)
		offset += nd.ParameterNum()
	}

	return out
}
