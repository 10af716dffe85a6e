// SPDX-License-Identifier: MIT

package cost

import (
	"fmt"
	"strings"
)

// Variant selects the cost function.
type Variant uint8

const (
	// FrobeniusNorm is 1 − Re(p̄·Tr_d(A))/m with p the phase of A[d,0].
	FrobeniusNorm Variant = iota
	// FrobeniusNormCorrection1 is FrobeniusNorm plus the off-diagonal weight term.
	FrobeniusNormCorrection1
	// FrobeniusNormCorrection2 is FrobeniusNorm plus the phase-spread term.
	FrobeniusNormCorrection2
	// HilbertSchmidt is 1 − |Tr_d(A)|²/m², invariant under global phase.
	HilbertSchmidt
	// HilbertSchmidtCorrection1 is HilbertSchmidt plus the off-diagonal weight term.
	HilbertSchmidtCorrection1
	// HilbertSchmidtCorrection2 is HilbertSchmidt plus the phase-spread term.
	HilbertSchmidtCorrection2

	variantCount
)

var variantNames = [variantCount]string{
	FrobeniusNorm:             "FROBENIUS_NORM",
	FrobeniusNormCorrection1:  "FROBENIUS_NORM_CORRECTION1",
	FrobeniusNormCorrection2:  "FROBENIUS_NORM_CORRECTION2",
	HilbertSchmidt:            "HILBERT_SCHMIDT_TEST",
	HilbertSchmidtCorrection1: "HILBERT_SCHMIDT_TEST_CORRECTION1",
	HilbertSchmidtCorrection2: "HILBERT_SCHMIDT_TEST_CORRECTION2",
}

// String returns the canonical upper-case name.
func (v Variant) String() string {
	if v < variantCount {
		return variantNames[v]
	}

	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool { return v < variantCount }

func (v Variant) hilbertSchmidt() bool {
	return v == HilbertSchmidt || v == HilbertSchmidtCorrection1 || v == HilbertSchmidtCorrection2
}

func (v Variant) correction1() bool {
	return v == FrobeniusNormCorrection1 || v == HilbertSchmidtCorrection1
}

func (v Variant) correction2() bool {
	return v == FrobeniusNormCorrection2 || v == HilbertSchmidtCorrection2
}

// ParseVariant resolves a case-insensitive name; "HILBERT_SCHMIDT" is
// accepted as an alias of HILBERT_SCHMIDT_TEST.
func ParseVariant(s string) (Variant, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	u = strings.Replace(u, "HILBERT_SCHMIDT_TEST", "HILBERT_SCHMIDT", 1)
	for v := Variant(0); v < variantCount; v++ {
		if strings.Replace(variantNames[v], "HILBERT_SCHMIDT_TEST", "HILBERT_SCHMIDT", 1) == u {
			return v, nil
		}
	}

	return 0, fmt.Errorf("ParseVariant(%q): %w", s, ErrUnknownVariant)
}
