// Package field implements modular arithmetic over an implementer-chosen
// prime p (SPEC_FULL.md §5.2, spec.md §4.2, C2): a Field configuration
// object and the FieldElement pair (value, modulus) it produces, sharing
// the modulus by reference the way the teacher's FieldElement shares a
// single normalized prime across every element derived from one Field.
package field

import (
	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/ecerr"
	"github.com/hackerman-ru/ecguide/internal/cache"
)

// Field is the configuration object {modulus}. All FieldElements produced
// by one Field share this pointer, matching spec.md §3's "shared by
// reference" contract.
type Field struct {
	modulus bigint.BigUint
}

// NewField wraps modulus (assumed prime; the caller's responsibility per
// spec.md §3) into a Field.
func NewField(modulus bigint.BigUint) *Field {
	return &Field{modulus: modulus}
}

// Modulus returns the field's prime.
func (f *Field) Modulus() bigint.BigUint { return f.modulus }

func (f *Field) width() int { return f.modulus.Width() }

// Element reduces v into [0, modulus) and returns the FieldElement.
func (f *Field) Element(v bigint.BigUint) Element {
	if v.Width() != f.width() {
		ecerr.Preconditionf("field: value width %d does not match modulus width %d", v.Width(), f.width())
	}
	_, r := v.DivMod(f.modulus)
	return Element{value: r, field: f}
}

// ElementFromUint64 is a convenience wrapper around Element/FromUint64.
func (f *Field) ElementFromUint64(v uint64) Element {
	return f.Element(bigint.FromUint64(f.width(), v))
}

// Zero and One return the additive and multiplicative identities.
func (f *Field) Zero() Element { return f.ElementFromUint64(0) }
func (f *Field) One() Element  { return f.ElementFromUint64(1) }

// Element is a pair (value, modulus) with value < modulus. The zero value
// of Element is invalid; always obtain one from a Field.
type Element struct {
	value bigint.BigUint
	field *Field
}

func (e Element) Field() *Field           { return e.field }
func (e Element) Value() bigint.BigUint   { return e.value }
func (e Element) Modulus() bigint.BigUint { return e.field.modulus }

func checkSameField(a, b Element) {
	if a.field != b.field {
		ecerr.Precondition("field: operands belong to different fields")
	}
}

// widen doubles the digit width so a product of two sub-modulus values
// never silently truncates before reduction (spec.md §4.1's fixed-width
// BigUint cannot hold a full double-width product at its native width).
func (f *Field) widen() bigint.BigUint { return f.modulus.WithWidth(2 * f.width()) }

func (f *Field) mulReduce(a, b bigint.BigUint) bigint.BigUint {
	w := f.width()
	prod := a.WithWidth(2 * w).Mul(b.WithWidth(2 * w))
	_, r := prod.DivMod(f.widen())
	return r.WithWidth(w)
}

// Add returns a+b, reducing by subtracting the modulus at most once per
// spec.md §3's invariant-restoration recipe. Overflow of the fixed-width
// sum is detected by the standard wrap-around comparison (sum < a).
func (a Element) Add(b Element) Element {
	checkSameField(a, b)
	m := a.field.modulus
	sum := a.value.Add(b.value)
	if sum.Cmp(a.value) < 0 || sum.Cmp(m) >= 0 {
		sum = sum.Sub(m)
	}
	return Element{value: sum, field: a.field}
}

// Sub returns a-b, adding the modulus back once if the fixed-width
// subtraction wrapped (went negative).
func (a Element) Sub(b Element) Element {
	checkSameField(a, b)
	m := a.field.modulus
	diff := a.value.Sub(b.value)
	if diff.Cmp(a.value) > 0 {
		diff = diff.Add(m)
	}
	return Element{value: diff, field: a.field}
}

// Neg returns -a mod p.
func (a Element) Neg() Element {
	if a.value.IsZero() {
		return a
	}
	return Element{value: a.field.modulus.Sub(a.value), field: a.field}
}

// Mul returns a*b mod p.
func (a Element) Mul(b Element) Element {
	checkSameField(a, b)
	return Element{value: a.field.mulReduce(a.value, b.value), field: a.field}
}

// Shl returns a * 2^shift mod p (spec.md §4.2's "left shift treated as
// multiplication by 2^i").
func (a Element) Shl(shift int) Element {
	w := a.field.width()
	shifted := a.value.WithWidth(2 * w).Shl(shift)
	_, r := shifted.DivMod(a.field.widen())
	return Element{value: r.WithWidth(w), field: a.field}
}

// IsInvertible reports whether a has a multiplicative inverse, i.e.
// whether a != 0.
func (a Element) IsInvertible() bool { return !a.value.IsZero() }

// Inverse returns a^-1 mod p via Fermat's little theorem (a^(p-2)), an
// implementation choice documented in DESIGN.md: spec.md §4.2 describes
// extended Euclid, but the fixed-width wrap-around BigUint makes signed
// Bezout-coefficient bookkeeping error-prone, while a^(p-2) reuses the
// already-verified square-and-multiply Pow and preserves every observable
// contract (result in [0,p), NotInvertible iff a == 0).
func (a Element) Inverse() (Element, error) {
	if !a.IsInvertible() {
		return Element{}, ecerr.New(ecerr.NotInvertible, "inverse of zero field element")
	}
	p := a.field.modulus
	w := p.Width()
	two := bigint.FromUint64(w, 2)
	exp := p.Sub(two)
	return Pow(a, exp), nil
}

// Div returns a/b mod p.
func (a Element) Div(b Element) (Element, error) {
	checkSameField(a, b)
	inv, err := b.Inverse()
	if err != nil {
		return Element{}, err
	}
	return a.Mul(inv), nil
}

// Equal reports value equality (moduli are assumed to match; comparing
// elements across fields is a Precondition, as for every other binary op).
func (a Element) Equal(b Element) bool {
	checkSameField(a, b)
	return a.value.Equal(b.value)
}

// Less gives the total order by value that spec.md §4.2 calls for.
func (a Element) Less(b Element) bool {
	checkSameField(a, b)
	return a.value.Cmp(b.value) < 0
}

// Pow computes element^power by square-and-multiply over power's binary
// expansion, per spec.md §4.2.
func Pow(element Element, power bigint.BigUint) Element {
	result := element.field.One()
	base := element
	for i := 0; i < power.BitLen(); i++ {
		if bitSet(power, i) {
			result = result.Mul(base)
		}
		base = base.Mul(base)
	}
	return result
}

func bitSet(v bigint.BigUint, i int) bool {
	return v.Shr(i).IsOdd()
}

// tsTable holds the precomputed Tonelli-Shanks state for one field
// modulus, cached process-wide per spec.md §5.
type tsTable struct {
	s            int
	q            bigint.BigUint
	squarePowers []bigint.BigUint // c, c^2, c^4, ..., c^(2^(s-1)) where c = nonResidue^q
}

var tonelliShanksCache = cache.New[*tsTable]()

func (f *Field) tsKey() string { return f.modulus.String() }

func buildTSTable(f *Field) *tsTable {
	w := f.width()
	one := bigint.FromUint64(w, 1)
	pMinus1 := f.modulus.Sub(one)

	s := 0
	q := pMinus1
	for !q.IsOdd() {
		q = q.Shr(1)
		s++
	}

	nonResidue := f.ElementFromUint64(2)
	for {
		legendre := Pow(nonResidue, q.Shl(s-1))
		if legendre.Equal(f.Element(pMinus1)) {
			break
		}
		nonResidue = nonResidue.Add(f.One())
	}

	c := Pow(nonResidue, q)
	powers := make([]bigint.BigUint, s)
	powers[0] = c.value
	cur := c
	for i := 1; i < s; i++ {
		cur = cur.Mul(cur)
		powers[i] = cur.value
	}

	return &tsTable{s: s, q: q, squarePowers: powers}
}

// Sqrt computes a square root of z in F_p via Tonelli-Shanks (spec.md
// §4.2). Returns ecerr.NotASquare if z is a non-residue.
func Sqrt(z Element) (Element, error) {
	f := z.field
	if z.value.IsZero() {
		return z, nil
	}

	p := f.modulus
	w := f.width()
	one := bigint.FromUint64(w, 1)
	pMinus1 := p.Sub(one)

	// p ≡ 3 (mod 4): direct formula, no table needed.
	if modFour(p) == 3 {
		four := bigint.FromUint64(w, 4)
		exp, _ := p.Add(one).DivMod(four)
		r := Pow(z, exp)
		if r.Mul(r).Equal(z) {
			return r, nil
		}
		return Element{}, ecerr.New(ecerr.NotASquare, "no square root exists")
	}

	legendre := Pow(z, pMinus1.Shr(1))
	if !legendre.Equal(f.One()) {
		return Element{}, ecerr.New(ecerr.NotASquare, "no square root exists")
	}

	table := tonelliShanksCache.GetOrCompute(f.tsKey(), func() *tsTable { return buildTSTable(f) })

	two := bigint.FromUint64(w, 2)
	uPlus1Over2, _ := table.q.Add(one).DivMod(two)
	x := Pow(z, uPlus1Over2)
	t := Pow(z, table.q)
	m := table.s

	for !t.Equal(f.One()) {
		// smallest i, 0 < i < m, with t^(2^i) == 1.
		i := 0
		temp := t
		for !temp.Equal(f.One()) {
			temp = temp.Mul(temp)
			i++
			if i == m {
				return Element{}, ecerr.New(ecerr.NotASquare, "order tracking failed to reduce")
			}
		}

		b := f.Element(table.squarePowers[table.s-i-1])
		x = x.Mul(b)
		t = t.Mul(b).Mul(b)
		m = i
	}

	return x, nil
}

func modFour(v bigint.BigUint) uint32 {
	digits := v.Digits()
	return digits[0] & 0x3
}
