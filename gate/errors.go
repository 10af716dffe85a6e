// SPDX-License-Identifier: MIT
// Package gate: sentinel error set.
// Every message is prefixed with "gate: ..."; callers match with errors.Is.

package gate

import "errors"

var (
	// ErrInvalidQubitIndex is returned when a target/control index is negative,
	// ≥ the qubit count, or when target == control.
	ErrInvalidQubitIndex = errors.New("gate: invalid qubit index")

	// ErrInvalidKind is returned for an unknown kind or a kind/control mismatch
	// (control supplied to a single-qubit kind or missing for a two-qubit kind).
	ErrInvalidKind = errors.New("gate: invalid gate kind")

	// ErrParameterCount is returned when a parameter slice does not hold
	// exactly ParameterNum() values.
	ErrParameterCount = errors.New("gate: wrong number of parameters")

	// ErrQubitNumMismatch is returned when nodes or matrices of different
	// register sizes are combined.
	ErrQubitNumMismatch = errors.New("gate: qubit count mismatch")

	// ErrInvalidPermutation is returned by Reorder for a non-permutation.
	ErrInvalidPermutation = errors.New("gate: invalid qubit permutation")

	// ErrNodeIndex is returned when a node position is out of range.
	ErrNodeIndex = errors.New("gate: node index out of range")

	// ErrNestingCycle is returned when nesting a block would make it
	// contain itself.
	ErrNestingCycle = errors.New("gate: block nesting cycle")

	// ErrCorruptStructure is returned by DecodeBlock on malformed input.
	ErrCorruptStructure = errors.New("gate: corrupt gate structure encoding")
)
