// SPDX-License-Identifier: MIT

// Command qgd decomposes seeded random unitaries and states into gate
// sequences.
//
//	qgd decompose --qubits 3 --seed 7 --config qgd.yaml
//	qgd decompose --qubits 4 --state --optimizer ADAM
//	qgd version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
