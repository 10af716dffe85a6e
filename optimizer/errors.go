// SPDX-License-Identifier: MIT
// Package optimizer: sentinel error set. Messages are prefixed with "optimizer: ...".

package optimizer

import "errors"

var (
	// ErrUnknownKind is returned for an unrecognized strategy name.
	ErrUnknownKind = errors.New("optimizer: unknown optimizer kind")

	// ErrNilProblem is returned when the objective callbacks are missing.
	ErrNilProblem = errors.New("optimizer: problem has no objective")

	// errStop aborts a gonum run from the recorder; never returned to callers.
	errStop = errors.New("optimizer: stop requested")
)
