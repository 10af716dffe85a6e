// SPDX-License-Identifier: MIT

package gate

import (
	"fmt"
	"strings"
)

// Kind is the closed set of gate kinds understood by the engine.
type Kind uint8

const (
	// U3 is the general single-qubit rotation U3(θ,φ,λ).
	U3 Kind = iota
	// RX is a rotation about the X axis.
	RX
	// RY is a rotation about the Y axis.
	RY
	// RZ is a rotation about the Z axis.
	RZ
	// CRY is a controlled RY rotation.
	CRY
	// CNOT is the controlled X gate.
	CNOT
	// CZ is the controlled Z gate.
	CZ
	// CH is the controlled Hadamard gate.
	CH
	// X is the Pauli X gate.
	X
	// Y is the Pauli Y gate.
	Y
	// Z is the Pauli Z gate.
	Z
	// SX is the square root of X.
	SX
	// SYC is the Sycamore gate fSim(π/2, π/6).
	SYC
	// Adaptive is the parameterized two-qubit primitive inserted during
	// disentanglement; it acts as a controlled RY until replaced by native gates.
	Adaptive

	kindCount
)

var kindNames = [kindCount]string{
	U3: "U3", RX: "RX", RY: "RY", RZ: "RZ", CRY: "CRY",
	CNOT: "CNOT", CZ: "CZ", CH: "CH", X: "X", Y: "Y", Z: "Z",
	SX: "SX", SYC: "SYC", Adaptive: "ADAPTIVE",
}

// String returns the canonical upper-case tag of k.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k < kindCount }

// TwoQubit reports whether k acts on a control qubit as well as the target.
func (k Kind) TwoQubit() bool {
	switch k {
	case CRY, CNOT, CZ, CH, SYC, Adaptive:
		return true
	}

	return false
}

// ParseKind resolves a case-insensitive tag into a Kind.
func ParseKind(s string) (Kind, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for k := Kind(0); k < kindCount; k++ {
		if kindNames[k] == u {
			return k, nil
		}
	}

	return 0, fmt.Errorf("ParseKind(%q): %w", s, ErrInvalidKind)
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}

	return out
}
