// Package matrix offers the complex dense linear algebra used by the
// decomposition engine.
//
// The matrix package provides:
//
//   - Dense, a row-major complex128 matrix with bounds-checked At/Set and a
//     RawData escape hatch for hot loops in gate kernels.
//   - Products, adjoints, traces and Kronecker products (Mul, Adjoint, Trace,
//     Kron) with fail-fast shape validation.
//   - Numeric comparisons (AllClose, IsUnitary) used by tests and by the
//     decomposition driver to validate targets.
//
// Unitaries handled here are small (2^n×2^n with n ≲ 10); Dense favours
// simple loops over blocking or SIMD.
//
// The ops subpackage adds Householder QR and Haar-random unitary sampling.
package matrix
