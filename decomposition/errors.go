// SPDX-License-Identifier: MIT
// Package decomposition: error taxonomy.
//
// Construction and setter failures match ErrInvalidInput and, where one
// exists, the leaf sentinel of the package that rejected the input
// (matrix, gate, topology), so both errors.Is checks succeed.

package decomposition

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput marks malformed construction input: wrong matrix
	// dimension, non-power-of-two size, bad topology, bad option value.
	ErrInvalidInput = errors.New("decomposition: invalid input")

	// ErrNoStructure is returned when an operation needs a gate structure
	// and none has been set or built yet.
	ErrNoStructure = errors.New("decomposition: no gate structure")

	// ErrUnsupportedGateExport is returned by an Exporter for a record it
	// cannot represent; ExportWith then yields no circuit.
	ErrUnsupportedGateExport = errors.New("decomposition: unsupported gate in export")

	// ErrColumnPermutation is returned by Reorder when the qubit
	// permutation would move a compared column of a rectangular target
	// outside the compared range.
	ErrColumnPermutation = errors.New("decomposition: permutation moves compared columns")

	// ErrOptionViolation is the leaf cause recorded by a WithX option that
	// received an out-of-range value.
	ErrOptionViolation = errors.New("decomposition: invalid option value")
)

// invalidInput tags cause as ErrInvalidInput while keeping it matchable.
func invalidInput(op string, cause error) error {
	return errors.WithStack(fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, cause))
}
