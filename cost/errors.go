// SPDX-License-Identifier: MIT
// Package cost: sentinel error set. Messages are prefixed with "cost: ...".

package cost

import "errors"

var (
	// ErrDimensionMismatch is returned when the target does not have 2^n rows
	// for the structure's register, when trace offset plus columns exceeds the
	// row count, or when two compared matrices differ in shape.
	ErrDimensionMismatch = errors.New("cost: dimension mismatch")

	// ErrUnknownVariant is returned for an unrecognized cost variant.
	ErrUnknownVariant = errors.New("cost: unknown cost function variant")

	// ErrParameterCount is returned when a parameter or gradient vector does
	// not match the structure's parameter count.
	ErrParameterCount = errors.New("cost: wrong number of parameters")
)
