// Package qgd decomposes N-qubit unitaries and states into sequences of
// one- and two-qubit gates by structure search and numeric optimization.
//
// What is qgd?
//
//	A pure-Go engine that brings together:
//		• Complex matrices: dense row-major storage, products, QR, Haar sampling
//		• Gates: U3, rotations, CNOT/CZ/CH/CRY, SYC and the adaptive primitive
//		• Gate structures: nested blocks, reordering, binary persistence
//		• Cost functions: Frobenius and Hilbert–Schmidt families with gradients
//		• Optimizers: BFGS, BFGS2, ADAM, batched ADAM with perturbation restarts
//		• Adaptive search: level growth, compression, native gate replacement
//
// Under the hood, everything is organized under these subpackages:
//
//	matrix/         Dense complex matrices, validators and linear algebra
//	matrix/ops/     Householder QR, random unitaries and states
//	gate/           Kind, Gate, Block, gate export records, structure codec
//	cost/           cost variants and the adjoint-method gradient evaluator
//	optimizer/      strategy state machine and Prometheus instruments
//	topology/       qubit coupling graph restricting two-qubit gates
//	decomposition/  the driver: adaptive search, custom structures, export
//	config/         YAML configuration and logger construction
//	cmd/qgd/        command-line front end
//
// Quick example:
//
//	U, _ := ops.RandomUnitary(8, rand.New(rand.NewSource(1)))
//	d, _ := decomposition.New(U, decomposition.WithSeed(1))
//	res, _ := d.Start()
//	for _, g := range d.Export() {
//		fmt.Println(g)
//	}
//	fmt.Println(res.Error)
//
//	go install github.com/katalvlaran/qgd/cmd/qgd@latest
package qgd
