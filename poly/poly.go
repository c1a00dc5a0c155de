// Package poly implements univariate polynomials over a field.Field
// (SPEC_FULL.md §5.3, spec.md §4.3, C3), in the canonical form required
// by quotient-ring reduction and Schoof's division polynomials: no
// trailing zero coefficients, so the zero polynomial is the empty slice.
package poly

import (
	"strings"

	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/ecerr"
	"github.com/hackerman-ru/ecguide/field"
)

// Polynomial is coefficients in ascending degree order: coeffs[i] is the
// coefficient of x^i. It is kept canonical (no trailing zero) by every
// constructor and operation in this package.
type Polynomial struct {
	coeffs []field.Element
	f      *field.Field
}

// New builds a canonical Polynomial from coefficients in ascending degree
// order, trimming trailing zeros.
func New(f *field.Field, coeffs []field.Element) Polynomial {
	c := trim(append([]field.Element(nil), coeffs...))
	return Polynomial{coeffs: c, f: f}
}

// Zero returns the additive identity, the empty-coefficient polynomial.
func Zero(f *field.Field) Polynomial { return Polynomial{f: f} }

// Monomial returns coeff * x^degree.
func Monomial(f *field.Field, degree int, coeff field.Element) Polynomial {
	c := make([]field.Element, degree+1)
	for i := range c {
		c[i] = f.Zero()
	}
	c[degree] = coeff
	return New(f, c)
}

func trim(c []field.Element) []field.Element {
	n := len(c)
	for n > 0 && c[n-1].Value().IsZero() {
		n--
	}
	return c[:n]
}

// Degree returns -1 for the zero polynomial, else the highest exponent
// with a nonzero coefficient.
func (p Polynomial) Degree() int { return len(p.coeffs) - 1 }

// IsZero reports whether p is the zero polynomial.
func (p Polynomial) IsZero() bool { return len(p.coeffs) == 0 }

// Field returns the coefficient field.
func (p Polynomial) Field() *field.Field { return p.f }

// Coeff returns the coefficient of x^i, or the field's zero above the
// polynomial's degree.
func (p Polynomial) Coeff(i int) field.Element {
	if i < 0 || i >= len(p.coeffs) {
		return p.f.Zero()
	}
	return p.coeffs[i]
}

// LeadingCoeff returns the coefficient of the highest-degree term; panics
// (Precondition) on the zero polynomial, which has none.
func (p Polynomial) LeadingCoeff() field.Element {
	if p.IsZero() {
		ecerr.Precondition("poly: leading coefficient of the zero polynomial")
	}
	return p.coeffs[len(p.coeffs)-1]
}

func checkSameField(a, b Polynomial) {
	if a.f != b.f {
		ecerr.Precondition("poly: operands belong to different fields")
	}
}

// Add returns p+q.
func (p Polynomial) Add(q Polynomial) Polynomial {
	checkSameField(p, q)
	n := len(p.coeffs)
	if len(q.coeffs) > n {
		n = len(q.coeffs)
	}
	c := make([]field.Element, n)
	for i := 0; i < n; i++ {
		c[i] = p.Coeff(i).Add(q.Coeff(i))
	}
	return New(p.f, c)
}

// Sub returns p-q.
func (p Polynomial) Sub(q Polynomial) Polynomial {
	checkSameField(p, q)
	n := len(p.coeffs)
	if len(q.coeffs) > n {
		n = len(q.coeffs)
	}
	c := make([]field.Element, n)
	for i := 0; i < n; i++ {
		c[i] = p.Coeff(i).Sub(q.Coeff(i))
	}
	return New(p.f, c)
}

// Neg returns -p.
func (p Polynomial) Neg() Polynomial {
	c := make([]field.Element, len(p.coeffs))
	for i, v := range p.coeffs {
		c[i] = v.Neg()
	}
	return Polynomial{coeffs: c, f: p.f}
}

// Mul returns the schoolbook product p*q, O(deg(p)*deg(q)).
func (p Polynomial) Mul(q Polynomial) Polynomial {
	checkSameField(p, q)
	if p.IsZero() || q.IsZero() {
		return Zero(p.f)
	}
	c := make([]field.Element, len(p.coeffs)+len(q.coeffs)-1)
	for i := range c {
		c[i] = p.f.Zero()
	}
	for i, a := range p.coeffs {
		if a.Value().IsZero() {
			continue
		}
		for j, b := range q.coeffs {
			c[i+j] = c[i+j].Add(a.Mul(b))
		}
	}
	return New(p.f, c)
}

// ScalarMul returns c*p with c a field element.
func (p Polynomial) ScalarMul(c field.Element) Polynomial {
	out := make([]field.Element, len(p.coeffs))
	for i, v := range p.coeffs {
		out[i] = v.Mul(c)
	}
	return New(p.f, out)
}

// DivMod performs Euclidean division: returns (quotient, remainder) with
// p == d*quotient + remainder and deg(remainder) < deg(d). Panics
// (Precondition) on division by the zero polynomial.
func (p Polynomial) DivMod(d Polynomial) (quot, rem Polynomial) {
	checkSameField(p, d)
	if d.IsZero() {
		ecerr.Precondition("poly: division by the zero polynomial")
	}

	remCoeffs := append([]field.Element(nil), p.coeffs...)
	quotCoeffs := make([]field.Element, 0)
	if p.Degree() >= d.Degree() {
		quotCoeffs = make([]field.Element, p.Degree()-d.Degree()+1)
		for i := range quotCoeffs {
			quotCoeffs[i] = p.f.Zero()
		}
	}

	dLead, err := d.LeadingCoeff().Inverse()
	if err != nil {
		ecerr.Precondition("poly: division by a non-monic divisor over a field requires an invertible leading coefficient")
	}

	remDeg := len(remCoeffs) - 1
	for remDeg >= d.Degree() {
		remDeg = trimmedDegree(remCoeffs)
		if remDeg < d.Degree() {
			break
		}
		factor := remCoeffs[remDeg].Mul(dLead)
		shift := remDeg - d.Degree()
		quotCoeffs[shift] = factor
		for i, dc := range d.coeffs {
			remCoeffs[shift+i] = remCoeffs[shift+i].Sub(factor.Mul(dc))
		}
		remDeg--
	}

	return New(p.f, quotCoeffs), New(p.f, remCoeffs)
}

func trimmedDegree(c []field.Element) int {
	n := len(c)
	for n > 0 && c[n-1].Value().IsZero() {
		n--
	}
	return n - 1
}

// ModularGCD returns the monic extended-Euclidean GCD of p and q, along
// with Bezout coefficients s, t such that s*p + t*q == gcd.
func ModularGCD(p, q Polynomial) (gcd, s, t Polynomial) {
	checkSameField(p, q)
	f := p.f

	oldR, r := p, q
	oldS, sC := New(f, []field.Element{f.One()}), Zero(f)
	oldT, tC := Zero(f), New(f, []field.Element{f.One()})

	for !r.IsZero() {
		quot, rem := oldR.DivMod(r)
		oldR, r = r, rem
		oldS, sC = sC, oldS.Sub(quot.Mul(sC))
		oldT, tC = tC, oldT.Sub(quot.Mul(tC))
	}

	if oldR.IsZero() {
		return oldR, oldS, oldT
	}

	lead, err := oldR.LeadingCoeff().Inverse()
	if err != nil {
		ecerr.Precondition("poly: gcd leading coefficient is not invertible")
	}
	return oldR.ScalarMul(lead), oldS.ScalarMul(lead), oldT.ScalarMul(lead)
}

// Compose evaluates p at the polynomial x via Horner's method, computing
// p(x(t)) as a polynomial in t.
func (p Polynomial) Compose(x Polynomial) Polynomial {
	checkSameField(p, x)
	result := Zero(p.f)
	for i := p.Degree(); i >= 0; i-- {
		result = result.Mul(x).Add(New(p.f, []field.Element{p.Coeff(i)}))
	}
	return result
}

// Eval evaluates p at a field element via Horner's method.
func (p Polynomial) Eval(x field.Element) field.Element {
	result := p.f.Zero()
	for i := p.Degree(); i >= 0; i-- {
		result = result.Mul(x).Add(p.Coeff(i))
	}
	return result
}

// Pow raises p to a non-negative integer power by repeated squaring.
func (p Polynomial) Pow(n int) Polynomial {
	if n < 0 {
		ecerr.Precondition("poly: negative exponent")
	}
	result := New(p.f, []field.Element{p.f.One()})
	base := p
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// EvaluatesToZero reports whether v is a root of p.
func (p Polynomial) EvaluatesToZero(v field.Element) bool {
	return p.Eval(v).Value().IsZero()
}

// bitSet reports whether bit i of v is set, the same BigUint digit-walk
// schoof.go's exponentiation helpers use.
func bitSet(v bigint.BigUint, i int) bool { return v.Shr(i).IsOdd() }

// modPow raises base to exponent modulo m via square-and-reduce, the
// DivMod-based stand-in for a quotient ring's exponentiation (poly
// cannot import the ring package, which itself builds on poly).
func modPow(base Polynomial, exponent bigint.BigUint, m Polynomial) Polynomial {
	f := base.f
	result := New(f, []field.Element{f.One()})
	_, b := base.DivMod(m)
	for i := 0; i < exponent.BitLen(); i++ {
		if bitSet(exponent, i) {
			_, result = result.Mul(b).DivMod(m)
		}
		_, b = b.Mul(b).DivMod(m)
	}
	return result
}

// HasRootInField reports whether p has a root in F_prime, via
// gcd(x^prime - x, p) having positive degree: the standard test a
// polynomial's factorization over F_p exposes a rational root without
// enumerating F_p, used by schoof.traceModulo's ℓ=2 special case to
// detect a curve's rational 2-torsion (original_source's has_root).
func (p Polynomial) HasRootInField(prime bigint.BigUint) bool {
	x := New(p.f, []field.Element{p.f.Zero(), p.f.One()})
	xp := modPow(x, prime, p)
	diff := xp.Sub(x)
	gcd, _, _ := ModularGCD(diff, p)
	return gcd.Degree() > 0
}

// Equal compares two polynomials for structural (and thus value)
// equality; both must already be canonical, which every constructor in
// this package guarantees.
func (p Polynomial) Equal(q Polynomial) bool {
	checkSameField(p, q)
	if len(p.coeffs) != len(q.coeffs) {
		return false
	}
	for i := range p.coeffs {
		if !p.coeffs[i].Equal(q.coeffs[i]) {
			return false
		}
	}
	return true
}

// String renders p in descending-degree form, e.g. "3x^2 + x + 1".
func (p Polynomial) String() string {
	if p.IsZero() {
		return "0"
	}
	var b strings.Builder
	first := true
	for i := p.Degree(); i >= 0; i-- {
		c := p.Coeff(i)
		if c.Value().IsZero() {
			continue
		}
		if !first {
			b.WriteString(" + ")
		}
		first = false
		switch i {
		case 0:
			b.WriteString(c.Value().String())
		case 1:
			b.WriteString(c.Value().String())
			b.WriteString("x")
		default:
			b.WriteString(c.Value().String())
			b.WriteString("x^")
			b.WriteString(itoa(i))
		}
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
