// Package gate implements the gate primitive layer and the gate-structure
// container of the decomposition engine.
//
// What:
//
//   - Kind: closed set {U3, RX, RY, RZ, CRY, CNOT, CZ, CH, X, Y, Z, SX, SYC, Adaptive}.
//   - Gate: a kind bound to a register with target/control qubits; applies
//     itself, its adjoint and its parameter derivatives to any 2^n-row matrix
//     without building the full embedding.
//   - Block: ordered tree of gates and nested blocks in circuit order with a
//     depth-first parameter layout, flattening, qubit reordering and statistics.
//   - EncodeBlock/DecodeBlock: snappy-framed binary persistence of a structure
//     and, optionally, its parameter vector.
//
// Conventions:
//
//   - Qubit q is bit q of the basis index (little-endian register).
//   - Node 0 of a block acts first; Block.Matrix returns N_{k-1}·…·N_0.
//
// Errors:
//
//   - ErrInvalidQubitIndex, ErrInvalidKind, ErrParameterCount,
//     ErrQubitNumMismatch, ErrInvalidPermutation, ErrNodeIndex,
//     ErrCorruptStructure.
package gate
