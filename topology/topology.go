// SPDX-License-Identifier: MIT

// Package topology describes which qubit pairs may host a two-qubit gate.
//
// A Topology is an undirected simple graph over qubits 0..n-1. A nil
// *Topology stands for all-to-all coupling, so callers can pass it through
// without special cases.
//
// Errors:
//
//	ErrQubitCount      - qubit count is not positive.
//	ErrQubitOutOfRange - a pair names a qubit outside 0..n-1.
//	ErrSelfPair        - a pair couples a qubit to itself.
//	ErrDuplicatePair   - the same unordered pair appears twice.
//	ErrDisconnected    - some qubit cannot be reached from qubit 0.
package topology

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for topology construction.
var (
	// ErrQubitCount indicates a non-positive register size.
	ErrQubitCount = errors.New("topology: qubit count must be positive")

	// ErrQubitOutOfRange indicates a pair endpoint outside the register.
	ErrQubitOutOfRange = errors.New("topology: qubit out of range")

	// ErrSelfPair indicates a pair (q, q).
	ErrSelfPair = errors.New("topology: self pair")

	// ErrDuplicatePair indicates a repeated unordered pair.
	ErrDuplicatePair = errors.New("topology: duplicate pair")

	// ErrDisconnected indicates a coupling graph with more than one component.
	ErrDisconnected = errors.New("topology: disconnected coupling graph")
)

// Topology is an immutable coupling graph. Safe for concurrent reads.
type Topology struct {
	qubitNum int
	adj      [][]int // sorted neighbor lists
	pairs    [][2]int
}

// New builds a coupling graph over qubitNum qubits from unordered pairs.
// Pairs are normalized to (low, high) and returned sorted by Pairs.
func New(qubitNum int, pairs [][2]int) (*Topology, error) {
	if qubitNum <= 0 {
		return nil, fmt.Errorf("New(%d): %w", qubitNum, ErrQubitCount)
	}
	t := &Topology{qubitNum: qubitNum, adj: make([][]int, qubitNum)}
	seen := make(map[[2]int]struct{}, len(pairs))
	for _, p := range pairs {
		a, b := p[0], p[1]
		if a < 0 || a >= qubitNum || b < 0 || b >= qubitNum {
			return nil, fmt.Errorf("New: pair %v of %d qubits: %w", p, qubitNum, ErrQubitOutOfRange)
		}
		if a == b {
			return nil, fmt.Errorf("New: pair %v: %w", p, ErrSelfPair)
		}
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("New: pair %v: %w", p, ErrDuplicatePair)
		}
		seen[key] = struct{}{}
		t.pairs = append(t.pairs, key)
		t.adj[a] = append(t.adj[a], b)
		t.adj[b] = append(t.adj[b], a)
	}
	for _, nb := range t.adj {
		sort.Ints(nb)
	}
	sort.Slice(t.pairs, func(i, j int) bool {
		if t.pairs[i][0] != t.pairs[j][0] {
			return t.pairs[i][0] < t.pairs[j][0]
		}
		return t.pairs[i][1] < t.pairs[j][1]
	})

	return t, nil
}

// Linear couples each qubit with its successor: 0-1, 1-2, ..., (n-2)-(n-1).
func Linear(qubitNum int) (*Topology, error) {
	pairs := make([][2]int, 0, qubitNum)
	for q := 0; q+1 < qubitNum; q++ {
		pairs = append(pairs, [2]int{q, q + 1})
	}

	return New(qubitNum, pairs)
}

// QubitNum returns the register size; 0 for the all-to-all nil topology.
func (t *Topology) QubitNum() int {
	if t == nil {
		return 0
	}
	return t.qubitNum
}

// Allowed reports whether a two-qubit gate may act on (a, b).
func (t *Topology) Allowed(a, b int) bool {
	if a == b {
		return false
	}
	if t == nil {
		return true
	}
	if a < 0 || a >= t.qubitNum || b < 0 || b >= t.qubitNum {
		return false
	}
	nb := t.adj[a]
	i := sort.SearchInts(nb, b)

	return i < len(nb) && nb[i] == b
}

// Pairs returns a copy of the normalized, sorted pair list.
func (t *Topology) Pairs() [][2]int {
	if t == nil {
		return nil
	}
	out := make([][2]int, len(t.pairs))
	copy(out, t.pairs)

	return out
}

// Neighbors returns the qubits coupled to q, ascending.
func (t *Topology) Neighbors(q int) []int {
	if t == nil || q < 0 || q >= t.qubitNum {
		return nil
	}
	return append([]int(nil), t.adj[q]...)
}

// Distances runs a breadth-first search from start and returns the hop count
// to every qubit, -1 where unreachable.
func (t *Topology) Distances(start int) ([]int, error) {
	if t == nil {
		return nil, fmt.Errorf("Distances: %w", ErrQubitCount)
	}
	if start < 0 || start >= t.qubitNum {
		return nil, fmt.Errorf("Distances(%d): %w", start, ErrQubitOutOfRange)
	}
	dist := make([]int, t.qubitNum)
	for i := range dist {
		dist[i] = -1
	}
	dist[start] = 0
	queue := make([]int, 0, t.qubitNum)
	queue = append(queue, start)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range t.adj[cur] {
			if dist[nb] < 0 {
				dist[nb] = dist[cur] + 1
				queue = append(queue, nb)
			}
		}
	}

	return dist, nil
}

// Connected reports whether every qubit is reachable from qubit 0.
// A disconnected register cannot entangle across components.
func (t *Topology) Connected() bool { return t.RequireConnected() == nil }

// RequireConnected returns ErrDisconnected naming the first unreachable
// qubit, or nil.
func (t *Topology) RequireConnected() error {
	if t == nil {
		return nil
	}
	dist, _ := t.Distances(0)
	for q, d := range dist {
		if d < 0 {
			return fmt.Errorf("qubit %d unreachable from qubit 0: %w", q, ErrDisconnected)
		}
	}

	return nil
}
