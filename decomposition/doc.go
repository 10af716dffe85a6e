// Package decomposition drives the search for a quantum circuit that
// reproduces a target unitary, or the leading columns of one, up to a
// global phase.
//
// What:
//
//   - Decomposition: one target matrix plus configuration. Start searches
//     adaptive structures level by level, compresses the winner, replaces
//     adaptive gates by native ones and re-optimizes. Custom-structure mode
//     only optimizes a supplied structure.
//   - Structures can be saved, imported, extended with adaptive or
//     finalizing layers, absorbed into the target, and relabeled with
//     Reorder.
//   - Export and ExportWith hand the final gate list to a consumer.
//
// Concurrency:
//
//	A Decomposition is not safe for concurrent use. Independent initial
//	guesses and compression candidates are optimized in parallel inside a
//	single call, with seeds fixed beforehand, so results depend only on
//	the configured Seed.
//
// Errors:
//
//   - ErrInvalidInput wraps every rejected argument; the underlying
//     sentinel (matrix, gate, topology or ErrOptionViolation) stays
//     reachable through errors.Is.
//   - ErrNoStructure, ErrUnsupportedGateExport.
//
// A run that stays above the tolerance is reported through
// Result.Converged, not as an error.
package decomposition
