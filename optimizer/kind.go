// SPDX-License-Identifier: MIT

package optimizer

import (
	"fmt"
	"strings"
)

// Kind selects the optimization strategy.
type Kind uint8

const (
	// BFGS is quasi-Newton with the default line search.
	BFGS Kind = iota
	// ADAM is first/second-moment gradient descent.
	ADAM
	// BFGS2 is quasi-Newton with a More–Thuente line search.
	BFGS2
	// ADAMBatched is ADAM updating one parameter window per step.
	ADAMBatched

	kindCount
)

var kindNames = [kindCount]string{BFGS: "BFGS", ADAM: "ADAM", BFGS2: "BFGS2", ADAMBatched: "ADAM_BATCHED"}

// String returns the canonical name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known strategy.
func (k Kind) Valid() bool { return k < kindCount }

// ParseKind resolves a case-insensitive strategy name.
func ParseKind(s string) (Kind, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for k := Kind(0); k < kindCount; k++ {
		if kindNames[k] == u {
			return k, nil
		}
	}

	return 0, fmt.Errorf("ParseKind(%q): %w", s, ErrUnknownKind)
}

// State is a node of the optimizer state machine.
type State uint8

const (
	// StateInit precedes the first iteration.
	StateInit State = iota
	// StateIterating runs the selected strategy.
	StateIterating
	// StateRandomizing perturbs the incumbent after stagnation.
	StateRandomizing
	// StateConverged is terminal: best cost below tolerance.
	StateConverged
	// StateExhausted is terminal: budget spent without convergence.
	StateExhausted
)

var stateNames = [...]string{"INIT", "ITERATING", "RANDOMIZING", "CONVERGED", "EXHAUSTED"}

// String returns the upper-case state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return fmt.Sprintf("State(%d)", uint8(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s == StateConverged || s == StateExhausted }
