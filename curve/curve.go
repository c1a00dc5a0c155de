// Package curve implements a short Weierstrass elliptic curve
// y^2 = x^3 + a*x + b over a field.Field, in the six coordinate
// representations of SPEC_FULL.md §5.5 / spec.md §4.5 (C5), unified
// behind the Point interface so callers (ecdsa, elgamal, schoof) can work
// with whichever representation suits their access pattern without
// knowing its formulas.
package curve

import (
	"math/big"

	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/ecerr"
	"github.com/hackerman-ru/ecguide/field"
	"github.com/hackerman-ru/ecguide/internal/randutil"
	"github.com/hackerman-ru/ecguide/poly"
)

// System names one of the six coordinate representations spec.md §4.5
// requires.
type System int

const (
	Normal System = iota
	Projective
	Jacobi
	JacobiChudnovski
	ModifiedJacobi
	SimplifiedJacobiChudnovski
)

func (s System) String() string {
	switch s {
	case Normal:
		return "normal"
	case Projective:
		return "projective"
	case Jacobi:
		return "jacobi"
	case JacobiChudnovski:
		return "jacobi-chudnovski"
	case ModifiedJacobi:
		return "modified-jacobi"
	case SimplifiedJacobiChudnovski:
		return "simplified-jacobi-chudnovski"
	default:
		return "unknown"
	}
}

// Curve is the configuration object {a, b, field}.
type Curve struct {
	a, b field.Element
	f    *field.Field
}

// New builds a curve over f with coefficients a, b. It does not check
// that 4a^3+27b^2 != 0 (non-singularity); callers that need that check
// should use IsSingular.
func New(f *field.Field, a, b field.Element) *Curve {
	return &Curve{a: a, b: b, f: f}
}

func (c *Curve) Field() *field.Field { return c.f }
func (c *Curve) A() field.Element    { return c.a }
func (c *Curve) B() field.Element    { return c.b }

// IsSingular reports whether 4a^3+27b^2 == 0, the discriminant vanishing
// condition that makes the curve equation define a singular cubic rather
// than a group.
func (c *Curve) IsSingular() bool {
	four := c.f.ElementFromUint64(4)
	twentySeven := c.f.ElementFromUint64(27)
	a3 := c.a.Mul(c.a).Mul(c.a)
	b2 := c.b.Mul(c.b)
	disc := four.Mul(a3).Add(twentySeven.Mul(b2))
	return disc.Value().IsZero()
}

// hasRationalTwoTorsion reports whether the curve has a rational point of
// order 2, i.e. whether x^3+a*x+b has a root in F_p — the same gcd-based
// test schoof.traceModulo's l=2 special case runs on this curve's defining
// cubic (poly.Polynomial.HasRootInField, spec.md §5.2).
func (c *Curve) hasRationalTwoTorsion() bool {
	curvePoly := poly.New(c.f, []field.Element{c.b, c.a, c.f.Zero(), c.f.One()})
	return curvePoly.HasRootInField(c.f.Modulus())
}

func must(e field.Element, err error) field.Element {
	if err != nil {
		ecerr.Precondition("curve: unexpected non-invertible denominator: " + err.Error())
	}
	return e
}

// pointCounter is supplied by the schoof package's init(), avoiding an
// import cycle (schoof needs curve.Curve; curve must not need schoof).
var pointCounter func(*Curve) (bigint.BigUint, error)

// RegisterPointCounter installs the #E(F_p) implementation. Called once,
// from schoof.init().
func RegisterPointCounter(f func(*Curve) (bigint.BigUint, error)) {
	pointCounter = f
}

// PointsNumber returns #E(F_p) via Schoof's algorithm (spec.md §5),
// provided by whichever package registered itself via
// RegisterPointCounter. Returns ecerr.InvalidInput if nothing did.
func (c *Curve) PointsNumber() (bigint.BigUint, error) {
	if pointCounter == nil {
		return bigint.BigUint{}, ecerr.New(ecerr.InvalidInput, "curve: point counting unavailable; import the schoof package")
	}
	return pointCounter(c)
}

// Point is satisfied by every coordinate representation. Add, Neg and
// Double never mix systems or curves; doing so is a Precondition.
type Point interface {
	Curve() *Curve
	System() System
	IsZero() bool
	Add(Point) Point
	Neg() Point
	Double() Point
	IsValid() bool
	// Affine projects back to (x, y); for the identity the result is the
	// placeholder (0, 1), which is not a curve point.
	Affine() (x, y field.Element)
}

func checkCompatible(a, b Point) {
	if a.Curve() != b.Curve() {
		ecerr.Precondition("curve: operands belong to different curves")
	}
	if a.System() != b.System() {
		ecerr.Preconditionf("curve: operand systems differ (%s vs %s)", a.System(), b.System())
	}
}

// ---- Normal (affine) ----

type normalPoint struct {
	c        *Curve
	x, y     field.Element
	isZero   bool
}

func (c *Curve) NormalPoint(x, y field.Element) Point {
	return normalPoint{c: c, x: x, y: y}
}

func (c *Curve) NormalIdentity() Point {
	return normalPoint{c: c, x: c.f.Zero(), y: c.f.One(), isZero: true}
}

func (p normalPoint) Curve() *Curve  { return p.c }
func (p normalPoint) System() System { return Normal }
func (p normalPoint) IsZero() bool   { return p.isZero }
func (p normalPoint) Affine() (field.Element, field.Element) { return p.x, p.y }

func (p normalPoint) Neg() Point {
	if p.isZero {
		return p
	}
	return normalPoint{c: p.c, x: p.x, y: p.y.Neg()}
}

func (p normalPoint) Double() Point {
	if p.isZero {
		return p
	}
	if !p.y.IsInvertible() {
		return p.c.NormalIdentity()
	}
	three := p.c.f.ElementFromUint64(3)
	k := must(three.Mul(p.x.Mul(p.x)).Add(p.c.a).Div(p.y.Shl(1)))
	x := k.Mul(k).Sub(p.x.Shl(1))
	y := k.Mul(p.x.Sub(x)).Sub(p.y)
	return normalPoint{c: p.c, x: x, y: y}
}

func (p normalPoint) Add(other Point) Point {
	checkCompatible(p, other)
	o := other.(normalPoint)
	if p.isZero {
		return o
	}
	if o.isZero {
		return p
	}
	if p.x.Equal(o.x) {
		if !p.y.Equal(o.y) {
			return p.c.NormalIdentity()
		}
		return p.Double()
	}
	k := must(o.y.Sub(p.y).Div(o.x.Sub(p.x)))
	x := k.Mul(k).Sub(p.x).Sub(o.x)
	y := k.Mul(p.x.Sub(x)).Sub(p.y)
	return normalPoint{c: p.c, x: x, y: y}
}

func (p normalPoint) IsValid() bool {
	if p.isZero {
		return true
	}
	lhs := p.y.Mul(p.y)
	rhs := p.x.Mul(p.x).Mul(p.x).Add(p.c.a.Mul(p.x)).Add(p.c.b)
	return lhs.Equal(rhs)
}

// ---- Projective ----

type projectivePoint struct {
	c      *Curve
	x, y, z field.Element
	isZero bool
}

func (c *Curve) ProjectivePoint(x, y field.Element) Point {
	return projectivePoint{c: c, x: x, y: y, z: c.f.One()}
}

func (c *Curve) ProjectiveIdentity() Point {
	return projectivePoint{c: c, x: c.f.Zero(), y: c.f.One(), z: c.f.One(), isZero: true}
}

func (p projectivePoint) Curve() *Curve  { return p.c }
func (p projectivePoint) System() System { return Projective }
func (p projectivePoint) IsZero() bool   { return p.isZero }
func (p projectivePoint) Affine() (field.Element, field.Element) {
	return must(p.x.Div(p.z)), must(p.y.Div(p.z))
}

func (p projectivePoint) Neg() Point {
	if p.isZero {
		return p
	}
	return projectivePoint{c: p.c, x: p.x, y: p.y.Neg(), z: p.z}
}

func (p projectivePoint) Double() Point {
	if p.isZero {
		return p
	}
	if !p.y.IsInvertible() {
		return p.c.ProjectiveIdentity()
	}
	f := p.c.f
	three := f.ElementFromUint64(3)
	w := p.c.a.Mul(p.z.Mul(p.z)).Add(three.Mul(p.x.Mul(p.x)))
	s := p.y.Mul(p.z)
	s2 := s.Mul(s)
	s3 := s2.Mul(s)
	b := p.x.Mul(p.y).Mul(s)
	h := w.Mul(w).Sub(b.Shl(3))
	x := h.Mul(s).Shl(1)
	y := w.Mul(b.Shl(2).Sub(h)).Sub(p.y.Mul(p.y).Mul(s2).Shl(3))
	z := s3.Shl(3)
	return projectivePoint{c: p.c, x: x, y: y, z: z}
}

func (p projectivePoint) Add(other Point) Point {
	checkCompatible(p, other)
	o := other.(projectivePoint)
	if p.isZero {
		return o
	}
	if o.isZero {
		return p
	}
	x1z2 := p.x.Mul(o.z)
	x2z1 := o.x.Mul(p.z)
	y1z2 := p.y.Mul(o.z)
	y2z1 := o.y.Mul(p.z)
	if x1z2.Equal(x2z1) {
		if !y1z2.Equal(y2z1) {
			return p.c.ProjectiveIdentity()
		}
		return p.Double()
	}
	u := y2z1.Sub(y1z2)
	v := x2z1.Sub(x1z2)
	v2 := v.Mul(v)
	v3 := v2.Mul(v)
	z1z2 := p.z.Mul(o.z)
	a := u.Mul(u).Mul(z1z2).Sub(v3).Sub(v2.Mul(x1z2).Shl(1))
	x := v.Mul(a)
	y := u.Mul(v2.Mul(x1z2).Sub(a)).Sub(v3.Mul(y1z2))
	z := v3.Mul(z1z2)
	return projectivePoint{c: p.c, x: x, y: y, z: z}
}

func (p projectivePoint) IsValid() bool {
	if p.isZero {
		return true
	}
	z2 := p.z.Mul(p.z)
	z3 := p.z.Mul(z2)
	lhs := p.y.Mul(p.y).Mul(p.z)
	rhs := p.x.Mul(p.x).Mul(p.x).Add(p.c.a.Mul(p.x).Mul(z2)).Add(p.c.b.Mul(z3))
	return lhs.Equal(rhs)
}

// ---- Jacobi ----

type jacobiPoint struct {
	c       *Curve
	x, y, z field.Element
	isZero  bool
}

func (c *Curve) JacobiPoint(x, y field.Element) Point {
	return jacobiPoint{c: c, x: x, y: y, z: c.f.One()}
}

func (c *Curve) JacobiIdentity() Point {
	return jacobiPoint{c: c, x: c.f.Zero(), y: c.f.One(), z: c.f.One(), isZero: true}
}

func (p jacobiPoint) Curve() *Curve  { return p.c }
func (p jacobiPoint) System() System { return Jacobi }
func (p jacobiPoint) IsZero() bool   { return p.isZero }
func (p jacobiPoint) Affine() (field.Element, field.Element) {
	z2 := p.z.Mul(p.z)
	z3 := z2.Mul(p.z)
	return must(p.x.Div(z2)), must(p.y.Div(z3))
}

func (p jacobiPoint) Neg() Point {
	if p.isZero {
		return p
	}
	return jacobiPoint{c: p.c, x: p.x, y: p.y.Neg(), z: p.z}
}

func (p jacobiPoint) Double() Point {
	if p.isZero {
		return p
	}
	if !p.y.IsInvertible() {
		return p.c.JacobiIdentity()
	}
	three := p.c.f.ElementFromUint64(3)
	y2 := p.y.Mul(p.y)
	y4 := y2.Mul(y2)
	v := p.x.Mul(y2).Shl(2)
	z2 := p.z.Mul(p.z)
	z4 := z2.Mul(z2)
	w := three.Mul(p.x.Mul(p.x)).Add(p.c.a.Mul(z4))
	x := w.Mul(w).Sub(v.Shl(1))
	z := p.y.Mul(p.z).Shl(1)
	y := w.Mul(v.Sub(x)).Sub(y4.Shl(3))
	return jacobiPoint{c: p.c, x: x, y: y, z: z}
}

func (p jacobiPoint) Add(other Point) Point {
	checkCompatible(p, other)
	o := other.(jacobiPoint)
	if p.isZero {
		return o
	}
	if o.isZero {
		return p
	}
	oz2 := o.z.Mul(o.z)
	pz2 := p.z.Mul(p.z)
	x1z2 := p.x.Mul(oz2)
	x2z1 := o.x.Mul(pz2)
	y1z2 := p.y.Mul(oz2).Mul(o.z)
	y2z1 := o.y.Mul(pz2).Mul(p.z)
	if x1z2.Equal(x2z1) {
		if !y1z2.Equal(y2z1) {
			return p.c.JacobiIdentity()
		}
		return p.Double()
	}
	h := x2z1.Sub(x1z2)
	h2 := h.Mul(h)
	h3 := h2.Mul(h)
	r := y2z1.Sub(y1z2)
	x := h3.Neg().Sub(x1z2.Mul(h2).Shl(1)).Add(r.Mul(r))
	y := y1z2.Neg().Mul(h3).Add(r.Mul(x1z2.Mul(h2).Sub(x)))
	z := p.z.Mul(o.z).Mul(h)
	return jacobiPoint{c: p.c, x: x, y: y, z: z}
}

func (p jacobiPoint) IsValid() bool {
	if p.isZero {
		return true
	}
	z2 := p.z.Mul(p.z)
	z4 := z2.Mul(z2)
	z6 := z4.Mul(z2)
	rhs := p.x.Mul(p.x).Mul(p.x).Add(p.c.a.Mul(p.x).Mul(z4)).Add(p.c.b.Mul(z6))
	return p.y.Mul(p.y).Equal(rhs)
}

// ---- JacobiChudnovski ----
//
// Caches Z^2 and Z^3 alongside the Jacobi triple, per
// original_source/src/core/elliptic-curve.h's JacobiChudnovski
// specialization: addition reads x1z2/x2z1/y1z2/y2z1 straight off the
// cached powers instead of squaring/cubing Z on every call, at the cost
// of carrying two extra field elements per point.

type jacobiChudnovskiPoint struct {
	c          *Curve
	x, y, z    field.Element
	z2, z3     field.Element
	isZero     bool
}

func (c *Curve) JacobiChudnovskiPoint(x, y field.Element) Point {
	one := c.f.One()
	return jacobiChudnovskiPoint{c: c, x: x, y: y, z: one, z2: one, z3: one}
}

func (c *Curve) JacobiChudnovskiIdentity() Point {
	one := c.f.One()
	return jacobiChudnovskiPoint{c: c, x: c.f.Zero(), y: one, z: one, z2: one, z3: one, isZero: true}
}

func (p jacobiChudnovskiPoint) Curve() *Curve  { return p.c }
func (p jacobiChudnovskiPoint) System() System { return JacobiChudnovski }
func (p jacobiChudnovskiPoint) IsZero() bool   { return p.isZero }
func (p jacobiChudnovskiPoint) Affine() (field.Element, field.Element) {
	return must(p.x.Div(p.z2)), must(p.y.Div(p.z3))
}

func (p jacobiChudnovskiPoint) Neg() Point {
	if p.isZero {
		return p
	}
	return jacobiChudnovskiPoint{c: p.c, x: p.x, y: p.y.Neg(), z: p.z, z2: p.z2, z3: p.z3}
}

func (p jacobiChudnovskiPoint) Double() Point {
	if p.isZero {
		return p
	}
	if !p.y.IsInvertible() {
		return p.c.JacobiChudnovskiIdentity()
	}
	three := p.c.f.ElementFromUint64(3)
	y2 := p.y.Mul(p.y)
	y4 := y2.Mul(y2)
	v := p.x.Mul(y2).Shl(2)
	w := three.Mul(p.x.Mul(p.x)).Add(p.c.a.Mul(p.z2.Mul(p.z2)))
	x := w.Mul(w).Sub(v.Shl(1))
	z := p.y.Mul(p.z).Shl(1)
	y := w.Mul(v.Sub(x)).Sub(y4.Shl(3))
	z2 := z.Mul(z)
	z3 := z.Mul(z2)
	return jacobiChudnovskiPoint{c: p.c, x: x, y: y, z: z, z2: z2, z3: z3}
}

func (p jacobiChudnovskiPoint) Add(other Point) Point {
	checkCompatible(p, other)
	o := other.(jacobiChudnovskiPoint)
	if p.isZero {
		return o
	}
	if o.isZero {
		return p
	}
	x1z2 := p.x.Mul(o.z2)
	x2z1 := o.x.Mul(p.z2)
	y1z2 := p.y.Mul(o.z3)
	y2z1 := o.y.Mul(p.z3)
	if x1z2.Equal(x2z1) {
		if !y1z2.Equal(y2z1) {
			return p.c.JacobiChudnovskiIdentity()
		}
		return p.Double()
	}
	h := x2z1.Sub(x1z2)
	h2 := h.Mul(h)
	h3 := h2.Mul(h)
	r := y2z1.Sub(y1z2)
	x := h3.Neg().Sub(x1z2.Mul(h2).Shl(1)).Add(r.Mul(r))
	y := y1z2.Neg().Mul(h3).Add(r.Mul(x1z2.Mul(h2).Sub(x)))
	z := p.z.Mul(o.z).Mul(h)
	z2 := z.Mul(z)
	z3 := z.Mul(z2)
	return jacobiChudnovskiPoint{c: p.c, x: x, y: y, z: z, z2: z2, z3: z3}
}

func (p jacobiChudnovskiPoint) IsValid() bool {
	if p.isZero {
		return true
	}
	z4 := p.z2.Mul(p.z2)
	z6 := p.z3.Mul(p.z3)
	rhs := p.x.Mul(p.x).Mul(p.x).Add(p.c.a.Mul(p.x).Mul(z4)).Add(p.c.b.Mul(z6))
	return p.y.Mul(p.y).Equal(rhs)
}

// ---- ModifiedJacobi ----
//
// Caches a*Z^4 directly (rather than Z itself raised to the fourth
// power on every doubling), per elliptic-curve.h's ModifiedJacobi
// specialization: the curve coefficient a never needs to be multiplied
// back in on the hot path, only carried forward through the update
// m_aZ4 = (U * m_aZ4) << 1 each doubling.

type modifiedJacobiPoint struct {
	c       *Curve
	x, y, z field.Element
	az4     field.Element
	isZero  bool
}

func (c *Curve) ModifiedJacobiPoint(x, y field.Element) Point {
	return modifiedJacobiPoint{c: c, x: x, y: y, z: c.f.One(), az4: c.a}
}

func (c *Curve) ModifiedJacobiIdentity() Point {
	return modifiedJacobiPoint{c: c, x: c.f.Zero(), y: c.f.One(), z: c.f.One(), az4: c.a, isZero: true}
}

func (p modifiedJacobiPoint) Curve() *Curve  { return p.c }
func (p modifiedJacobiPoint) System() System { return ModifiedJacobi }
func (p modifiedJacobiPoint) IsZero() bool   { return p.isZero }
func (p modifiedJacobiPoint) Affine() (field.Element, field.Element) {
	z2 := p.z.Mul(p.z)
	z3 := z2.Mul(p.z)
	return must(p.x.Div(z2)), must(p.y.Div(z3))
}

func (p modifiedJacobiPoint) Neg() Point {
	if p.isZero {
		return p
	}
	return modifiedJacobiPoint{c: p.c, x: p.x, y: p.y.Neg(), z: p.z, az4: p.az4}
}

func (p modifiedJacobiPoint) Double() Point {
	if p.isZero {
		return p
	}
	if !p.y.IsInvertible() {
		return p.c.ModifiedJacobiIdentity()
	}
	three := p.c.f.ElementFromUint64(3)
	y2 := p.y.Mul(p.y)
	v := p.x.Mul(y2).Shl(2)
	u := y2.Mul(y2).Shl(3)
	w := three.Mul(p.x.Mul(p.x)).Add(p.az4)
	x := w.Mul(w).Sub(v.Shl(1))
	z := p.y.Mul(p.z).Shl(1)
	y := w.Mul(v.Sub(x)).Sub(u)
	az4 := u.Mul(p.az4).Shl(1)
	return modifiedJacobiPoint{c: p.c, x: x, y: y, z: z, az4: az4}
}

func (p modifiedJacobiPoint) Add(other Point) Point {
	checkCompatible(p, other)
	o := other.(modifiedJacobiPoint)
	if p.isZero {
		return o
	}
	if o.isZero {
		return p
	}
	oz2 := o.z.Mul(o.z)
	oz3 := oz2.Mul(o.z)
	pz2 := p.z.Mul(p.z)
	pz3 := pz2.Mul(p.z)
	x1z2 := p.x.Mul(oz2)
	x2z1 := o.x.Mul(pz2)
	y1z2 := p.y.Mul(oz3)
	y2z1 := o.y.Mul(pz3)
	if x1z2.Equal(x2z1) {
		if !y1z2.Equal(y2z1) {
			return p.c.ModifiedJacobiIdentity()
		}
		return p.Double()
	}
	h := x2z1.Sub(x1z2)
	h2 := h.Mul(h)
	h3 := h2.Mul(h)
	r := y2z1.Sub(y1z2)
	x := h3.Neg().Sub(x1z2.Mul(h2).Shl(1)).Add(r.Mul(r))
	y := y1z2.Neg().Mul(h3).Add(r.Mul(x1z2.Mul(h2).Sub(x)))
	z := p.z.Mul(o.z).Mul(h)
	z2 := z.Mul(z)
	z4 := z2.Mul(z2)
	az4 := p.c.a.Mul(z4)
	return modifiedJacobiPoint{c: p.c, x: x, y: y, z: z, az4: az4}
}

func (p modifiedJacobiPoint) IsValid() bool {
	if p.isZero {
		return true
	}
	z2 := p.z.Mul(p.z)
	z4 := z2.Mul(z2)
	z6 := z4.Mul(z2)
	value := p.x.Mul(p.x).Mul(p.x).Add(p.x.Mul(p.az4)).Add(p.c.b.Mul(z6))
	return p.az4.Equal(p.c.a.Mul(z4)) && p.y.Mul(p.y).Equal(value)
}

// ---- SimplifiedJacobiChudnovski ----
//
// Caches only Z^2 (not Z^3 as JacobiChudnovski does), per
// elliptic-curve.h's SimplifiedJacobiChudnovski specialization: a
// middle ground that still skips one squaring per operation without
// JacobiChudnovski's full extra field element.

type simplifiedJacobiChudnovskiPoint struct {
	c       *Curve
	x, y, z field.Element
	z2      field.Element
	isZero  bool
}

func (c *Curve) SimplifiedJacobiChudnovskiPoint(x, y field.Element) Point {
	one := c.f.One()
	return simplifiedJacobiChudnovskiPoint{c: c, x: x, y: y, z: one, z2: one}
}

func (c *Curve) SimplifiedJacobiChudnovskiIdentity() Point {
	one := c.f.One()
	return simplifiedJacobiChudnovskiPoint{c: c, x: c.f.Zero(), y: one, z: one, z2: one, isZero: true}
}

func (p simplifiedJacobiChudnovskiPoint) Curve() *Curve  { return p.c }
func (p simplifiedJacobiChudnovskiPoint) System() System { return SimplifiedJacobiChudnovski }
func (p simplifiedJacobiChudnovskiPoint) IsZero() bool   { return p.isZero }
func (p simplifiedJacobiChudnovskiPoint) Affine() (field.Element, field.Element) {
	return must(p.x.Div(p.z2)), must(p.y.Div(p.z.Mul(p.z2)))
}

func (p simplifiedJacobiChudnovskiPoint) Neg() Point {
	if p.isZero {
		return p
	}
	return simplifiedJacobiChudnovskiPoint{c: p.c, x: p.x, y: p.y.Neg(), z: p.z, z2: p.z2}
}

func (p simplifiedJacobiChudnovskiPoint) Double() Point {
	if p.isZero {
		return p
	}
	if !p.y.IsInvertible() {
		return p.c.SimplifiedJacobiChudnovskiIdentity()
	}
	three := p.c.f.ElementFromUint64(3)
	y2 := p.y.Mul(p.y)
	y4 := y2.Mul(y2)
	v := p.x.Mul(y2).Shl(2)
	w := three.Mul(p.x.Mul(p.x)).Add(p.c.a.Mul(p.z2.Mul(p.z2)))
	x := w.Mul(w).Sub(v.Shl(1))
	z := p.y.Mul(p.z).Shl(1)
	y := w.Mul(v.Sub(x)).Sub(y4.Shl(3))
	z2 := z.Mul(z)
	return simplifiedJacobiChudnovskiPoint{c: p.c, x: x, y: y, z: z, z2: z2}
}

func (p simplifiedJacobiChudnovskiPoint) Add(other Point) Point {
	checkCompatible(p, other)
	o := other.(simplifiedJacobiChudnovskiPoint)
	if p.isZero {
		return o
	}
	if o.isZero {
		return p
	}
	x1z2 := p.x.Mul(o.z2)
	x2z1 := o.x.Mul(p.z2)
	y1z2 := p.y.Mul(o.z2).Mul(o.z)
	y2z1 := o.y.Mul(p.z2).Mul(p.z)
	if x1z2.Equal(x2z1) {
		if !y1z2.Equal(y2z1) {
			return p.c.SimplifiedJacobiChudnovskiIdentity()
		}
		return p.Double()
	}
	h := x2z1.Sub(x1z2)
	h2 := h.Mul(h)
	h3 := h2.Mul(h)
	r := y2z1.Sub(y1z2)
	x := h3.Neg().Sub(x1z2.Mul(h2).Shl(1)).Add(r.Mul(r))
	y := y1z2.Neg().Mul(h3).Add(r.Mul(x1z2.Mul(h2).Sub(x)))
	z := p.z.Mul(o.z).Mul(h)
	z2 := z.Mul(z)
	return simplifiedJacobiChudnovskiPoint{c: p.c, x: x, y: y, z: z, z2: z2}
}

func (p simplifiedJacobiChudnovskiPoint) IsValid() bool {
	if p.isZero {
		return true
	}
	z4 := p.z2.Mul(p.z2)
	z6 := z4.Mul(p.z2)
	rhs := p.x.Mul(p.x).Mul(p.x).Add(p.c.a.Mul(p.x).Mul(z4)).Add(p.c.b.Mul(z6))
	return p.y.Mul(p.y).Equal(rhs)
}

// ---- curve-level point construction ----

// PointWithXEqualTo solves y^2 = x^3+a*x+b for y and returns one of the
// two roots, or ecerr.NotASquare if x is not on the curve.
func (c *Curve) PointWithXEqualTo(x field.Element, system System) (Point, error) {
	rhs := x.Mul(x).Mul(x).Add(c.a.Mul(x)).Add(c.b)
	y, err := field.Sqrt(rhs)
	if err != nil {
		return nil, err
	}
	return c.makePoint(x, y, system), nil
}

func (c *Curve) makePoint(x, y field.Element, system System) Point {
	switch system {
	case Normal:
		return c.NormalPoint(x, y)
	case Projective:
		return c.ProjectivePoint(x, y)
	case Jacobi:
		return c.JacobiPoint(x, y)
	case JacobiChudnovski:
		return c.JacobiChudnovskiPoint(x, y)
	case ModifiedJacobi:
		return c.ModifiedJacobiPoint(x, y)
	case SimplifiedJacobiChudnovski:
		return c.SimplifiedJacobiChudnovskiPoint(x, y)
	default:
		ecerr.Preconditionf("curve: unknown coordinate system %d", system)
		return nil
	}
}

func (c *Curve) Identity(system System) Point {
	switch system {
	case Normal:
		return c.NormalIdentity()
	case Projective:
		return c.ProjectiveIdentity()
	case Jacobi:
		return c.JacobiIdentity()
	case JacobiChudnovski:
		return c.JacobiChudnovskiIdentity()
	case ModifiedJacobi:
		return c.ModifiedJacobiIdentity()
	case SimplifiedJacobiChudnovski:
		return c.SimplifiedJacobiChudnovskiIdentity()
	default:
		ecerr.Preconditionf("curve: unknown coordinate system %d", system)
		return nil
	}
}

// RandomPoint samples a uniformly random x in [0, p) and retries until a
// corresponding curve point is found, per spec.md §4.5's 1000-attempt
// budget (mirroring the C++ original's random_point). A sampled x of 0
// returns the identity instead of a point with x = 0.
func (c *Curve) RandomPoint(system System) (Point, error) {
	p := c.f.Modulus()
	width := p.Width()
	for i := 0; i < randutil.MaxAttempts; i++ {
		xv, err := randutil.UintBelow(width, p)
		if err != nil {
			return nil, err
		}
		x := c.f.Element(xv)
		if !x.IsInvertible() {
			return c.Identity(system), nil
		}
		pt, err := c.PointWithXEqualTo(x, system)
		if err == nil {
			return pt, nil
		}
	}
	return nil, ecerr.New(ecerr.BudgetExhausted, "random_point: exhausted 1000 attempts without finding a curve point")
}

// bigIntFromBigUint is a convenience bridge to math/big for the NAF
// digit-extraction loop, which needs arbitrary bit-length arithmetic that
// BigUint's fixed width does not naturally offer without repeated
// widening; math/big is stdlib, used here only for scalar bookkeeping,
// never for field or curve arithmetic itself.
func bigIntFromBigUint(v bigint.BigUint) *big.Int {
	b := v.Bytes()
	return new(big.Int).SetBytes(b)
}

// DefaultWindow is the wNAF window width used when callers don't pick
// one explicitly (SPEC_FULL.md §5.5's Open-Question resolution: 4 is a
// standard compromise between table size and digit density for 256-bit
// scalars).
const DefaultWindow = 4

// ScalarMul computes k*p using windowed non-adjacent form, representation
// agnostic: it only calls Add/Double/Neg on the Point interface, so it
// works identically for all six coordinate systems. window must be >= 2;
// window == 2 degenerates to plain NAF. Every scalar takes the same wNAF
// path; there is no separate route for small scalars.
func ScalarMul(p Point, k bigint.BigUint, window int) Point {
	if window < 2 {
		ecerr.Precondition("curve: wNAF window must be >= 2")
	}
	zero := p.Curve().Identity(p.System())
	if k.IsZero() || p.IsZero() {
		return zero
	}

	digits := nafDigits(k, window)
	tableSize := 1 << uint(window-2)
	table := make([]Point, tableSize)
	table[0] = p
	twiceP := p.Double()
	for i := 1; i < tableSize; i++ {
		table[i] = table[i-1].Add(twiceP)
	}

	result := zero
	for i := len(digits) - 1; i >= 0; i-- {
		result = result.Double()
		d := digits[i]
		if d == 0 {
			continue
		}
		abs := d
		if abs < 0 {
			abs = -abs
		}
		term := table[(abs-1)/2]
		if d < 0 {
			term = term.Neg()
		}
		result = result.Add(term)
	}
	return result
}

// nafDigits computes the width-`window` non-adjacent form of k, least
// significant digit first. Each nonzero digit is odd and in
// [-(2^(window-1)-1), 2^(window-1)-1].
func nafDigits(k bigint.BigUint, window int) []int {
	width := 1 << uint(window)
	half := 1 << uint(window-1)

	var digits []int
	cur := bigIntFromBigUint(k)
	zero := big.NewInt(0)
	two := big.NewInt(2)
	windowBig := big.NewInt(int64(width))

	for cur.Cmp(zero) > 0 {
		if cur.Bit(0) == 1 {
			mod := new(big.Int).Mod(cur, windowBig)
			d := int(mod.Int64())
			if d >= half {
				d -= width
			}
			digits = append(digits, d)
			cur.Sub(cur, big.NewInt(int64(d)))
		} else {
			digits = append(digits, 0)
		}
		cur.Div(cur, two)
	}
	return digits
}
