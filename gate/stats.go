// SPDX-License-Identifier: MIT

package gate

import (
	"fmt"
	"strings"
)

// Counts holds per-kind gate statistics of a flattened structure.
type Counts struct {
	ByKind map[Kind]int
	Total  int
}

// Counts tallies the leaf gates of b by kind.
func (b *Block) Counts() Counts {
	c := Counts{ByKind: make(map[Kind]int)}
	for _, e := range b.Flatten() {
		c.ByKind[e.Gate.kind]++
		c.Total++
	}

	return c
}

// TwoQubit returns the number of entangling gates.
func (c Counts) TwoQubit() int {
	n := 0
	for k, v := range c.ByKind {
		if k.TwoQubit() {
			n += v
		}
	}

	return n
}

// String renders the non-zero counts in kind order, e.g. "U3:6 CNOT:3".
func (c Counts) String() string {
	parts := make([]string, 0, len(c.ByKind))
	for _, k := range Kinds() {
		if v := c.ByKind[k]; v > 0 {
			parts = append(parts, fmt.Sprintf("%v:%d", k, v))
		}
	}

	return strings.Join(parts, " ")
}
