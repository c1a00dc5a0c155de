// Package ring implements the quotient ring F[x]/(m(x)) used by Schoof's
// algorithm to do arithmetic modulo a fixed division polynomial
// (SPEC_FULL.md §5.4, spec.md §4.4, C4).
package ring

import (
	"github.com/hackerman-ru/ecguide/ecerr"
	"github.com/hackerman-ru/ecguide/field"
	"github.com/hackerman-ru/ecguide/poly"
)

// Ring is the configuration object {modulus}: all Elements produced by
// one Ring share this pointer, the same sharing discipline field.Field
// uses for its modulus.
type Ring struct {
	modulus poly.Polynomial
}

// New wraps modulus into a Ring. modulus must have degree >= 1.
func New(modulus poly.Polynomial) *Ring {
	if modulus.Degree() < 1 {
		ecerr.Precondition("ring: modulus must have degree >= 1")
	}
	return &Ring{modulus: modulus}
}

func (r *Ring) Modulus() poly.Polynomial { return r.modulus }

// Element reduces p modulo the ring's modulus.
func (r *Ring) Element(p poly.Polynomial) Element {
	_, rem := p.DivMod(r.modulus)
	return Element{value: rem, ring: r}
}

// Zero and One return the additive and multiplicative identities.
func (r *Ring) Zero() Element {
	return Element{value: poly.Zero(r.modulus.Field()), ring: r}
}
func (r *Ring) One() Element {
	f := r.modulus.Field()
	return r.Element(poly.New(f, []field.Element{f.One()}))
}

// Element is a polynomial reduced modulo the ring's modulus.
type Element struct {
	value poly.Polynomial
	ring  *Ring
}

func (e Element) Ring() *Ring             { return e.ring }
func (e Element) Polynomial() poly.Polynomial { return e.value }

func checkSameRing(a, b Element) {
	if a.ring != b.ring {
		ecerr.Precondition("ring: operands belong to different rings")
	}
}

func (a Element) Add(b Element) Element {
	checkSameRing(a, b)
	return a.ring.Element(a.value.Add(b.value))
}

func (a Element) Sub(b Element) Element {
	checkSameRing(a, b)
	return a.ring.Element(a.value.Sub(b.value))
}

func (a Element) Neg() Element {
	return a.ring.Element(a.value.Neg())
}

func (a Element) Mul(b Element) Element {
	checkSameRing(a, b)
	return a.ring.Element(a.value.Mul(b.value))
}

// Compose returns a(b) reduced modulo the ring's modulus, used by Schoof
// to evaluate the Frobenius substitution x -> x^p inside the ring.
func (a Element) Compose(b Element) Element {
	checkSameRing(a, b)
	return a.ring.Element(a.value.Compose(b.value))
}

// Pow raises a to a non-negative integer power.
func (a Element) Pow(n int) Element {
	if n < 0 {
		ecerr.Precondition("ring: negative exponent")
	}
	result := a.ring.One()
	base := a
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// Equal compares canonical (already-reduced) representatives.
func (a Element) Equal(b Element) bool {
	checkSameRing(a, b)
	return a.value.Equal(b.value)
}

func (a Element) IsZero() bool { return a.value.IsZero() }

// GCD returns the monic GCD of a's representative polynomial and the
// ring's modulus, used to test invertibility and to recover a nontrivial
// factor of the modulus when an inverse fails (spec.md §4.6's
// "refining" endomorphism-arithmetic failure mode).
func (a Element) GCD() poly.Polynomial {
	gcd, _, _ := poly.ModularGCD(a.value, a.ring.modulus)
	return gcd
}

// Inverse returns a^-1 in the ring, or ecerr.NotInvertible if a's
// representative shares a nontrivial factor with the modulus. In that
// case the caller (schoof) recovers the shared factor via GCD to refine
// its working modulus, matching the C++ original's endomorphism
// arithmetic.
func (a Element) Inverse() (Element, error) {
	gcd, s, _ := poly.ModularGCD(a.value, a.ring.modulus)
	if gcd.Degree() != 0 {
		return Element{}, ecerr.New(ecerr.NotInvertible, "representative shares a nontrivial factor with the ring modulus")
	}
	// gcd is the nonzero constant s*a + t*modulus; normalize s by it.
	inv, err := gcd.Coeff(0).Inverse()
	if err != nil {
		ecerr.Precondition("ring: degree-0 gcd has a non-invertible leading coefficient")
	}
	return a.ring.Element(s.ScalarMul(inv)), nil
}
