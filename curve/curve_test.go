package curve

import (
	"testing"

	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/field"
)

// toyCurve is y^2 = x^3 + 7 over F_29 (S1 in SPEC_FULL.md), with a known
// point (3, 11): 3^3+7 = 34 = 5 (mod 29), and 11^2 = 121 = 5 (mod 29).
func toyCurve(t *testing.T) (*Curve, field.Element, field.Element) {
	t.Helper()
	f := field.NewField(bigint.FromUint64(bigint.Width256, 29))
	c := New(f, f.Zero(), f.ElementFromUint64(7))
	return c, f.ElementFromUint64(3), f.ElementFromUint64(11)
}

func TestHasRationalTwoTorsionDetectsRoot(t *testing.T) {
	c, _, _ := toyCurve(t) // y^2=x^3+7 mod 29, rational 2-torsion at x=13
	if !c.hasRationalTwoTorsion() {
		t.Error("y^2=x^3+7 mod 29 should have a rational 2-torsion point")
	}
}

func TestHasRationalTwoTorsionNoRoot(t *testing.T) {
	f := field.NewField(bigint.FromUint64(bigint.Width256, 7))
	c := New(f, f.One(), f.One()) // y^2=x^3+x+1 mod 7, no rational root
	if c.hasRationalTwoTorsion() {
		t.Error("y^2=x^3+x+1 mod 7 should have no rational 2-torsion point")
	}
}

func TestNormalPointIsValid(t *testing.T) {
	c, x, y := toyCurve(t)
	p := c.NormalPoint(x, y)
	if !p.IsValid() {
		t.Fatal("(3,11) should satisfy y^2=x^3+7 mod 29")
	}
}

func TestAddIdentityIsNoop(t *testing.T) {
	c, x, y := toyCurve(t)
	p := c.NormalPoint(x, y)
	id := c.NormalIdentity()
	got := p.Add(id)
	gx, gy := got.Affine()
	px, py := p.Affine()
	if !gx.Equal(px) || !gy.Equal(py) {
		t.Error("p+identity != p")
	}
}

func TestAddNegIsIdentity(t *testing.T) {
	c, x, y := toyCurve(t)
	p := c.NormalPoint(x, y)
	sum := p.Add(p.Neg())
	if !sum.IsZero() {
		t.Error("p+(-p) should be the identity")
	}
}

func TestDoubleMatchesSelfAdd(t *testing.T) {
	c, x, y := toyCurve(t)
	p := c.NormalPoint(x, y)
	doubled := p.Double()
	added := p.Add(p)
	dx, dy := doubled.Affine()
	ax, ay := added.Affine()
	if !dx.Equal(ax) || !dy.Equal(ay) {
		t.Error("p.Double() != p.Add(p)")
	}
	if !doubled.IsValid() {
		t.Error("2p should satisfy the curve equation")
	}
}

func representationsAgree(t *testing.T, c *Curve, x, y field.Element, system System, mk func(*Curve, field.Element, field.Element) Point) {
	t.Helper()
	affine := c.NormalPoint(x, y)
	other := mk(c, x, y)

	sumAffine := affine.Add(affine).Add(affine) // 3p
	sumOther := other.Add(other).Add(other)

	ax, ay := sumAffine.Affine()
	ox, oy := sumOther.Affine()
	if !ax.Equal(ox) || !ay.Equal(oy) {
		t.Errorf("%s: 3p affine = (%v,%v), want (%v,%v)", system, ox.Value(), oy.Value(), ax.Value(), ay.Value())
	}
}

func TestProjectiveAgreesWithNormal(t *testing.T) {
	c, x, y := toyCurve(t)
	representationsAgree(t, c, x, y, Projective, (*Curve).ProjectivePoint)
}

func TestJacobiAgreesWithNormal(t *testing.T) {
	c, x, y := toyCurve(t)
	representationsAgree(t, c, x, y, Jacobi, (*Curve).JacobiPoint)
}

func TestTaggedJacobiVariantsAgreeWithNormal(t *testing.T) {
	c, x, y := toyCurve(t)
	representationsAgree(t, c, x, y, JacobiChudnovski, (*Curve).JacobiChudnovskiPoint)
	representationsAgree(t, c, x, y, ModifiedJacobi, (*Curve).ModifiedJacobiPoint)
	representationsAgree(t, c, x, y, SimplifiedJacobiChudnovski, (*Curve).SimplifiedJacobiChudnovskiPoint)
}

func TestScalarMulMatchesRepeatedAddition(t *testing.T) {
	c, x, y := toyCurve(t)
	p := c.NormalPoint(x, y)

	repeated := c.NormalIdentity()
	for i := 0; i < 7; i++ {
		repeated = repeated.Add(p)
	}

	k := bigint.FromUint64(bigint.Width256, 7)
	got := ScalarMul(p, k, DefaultWindow)

	rx, ry := repeated.Affine()
	gx, gy := got.Affine()
	if !rx.Equal(gx) || !ry.Equal(gy) {
		t.Errorf("ScalarMul(p,7) = (%v,%v), want (%v,%v)", gx.Value(), gy.Value(), rx.Value(), ry.Value())
	}
}

func TestScalarMulByZeroIsIdentity(t *testing.T) {
	c, x, y := toyCurve(t)
	p := c.NormalPoint(x, y)
	got := ScalarMul(p, bigint.New(bigint.Width256), DefaultWindow)
	if !got.IsZero() {
		t.Error("0*p should be the identity")
	}
}

func TestPointWithXEqualToRejectsNonResidue(t *testing.T) {
	c, _, _ := toyCurve(t)
	f := c.Field()
	// x=1: 1+7=8, not a QR mod 29 (see field_test's TestSqrtOfNonResidueFails enumeration).
	_, err := c.PointWithXEqualTo(f.ElementFromUint64(1), Normal)
	if err == nil {
		t.Error("expected NotASquare for x=1 on y^2=x^3+7 mod 29")
	}
}

func TestPointWithXEqualToAccepts(t *testing.T) {
	c, x, y := toyCurve(t)
	pt, err := c.PointWithXEqualTo(x, Normal)
	if err != nil {
		t.Fatal(err)
	}
	px, py := pt.Affine()
	if !px.Equal(x) {
		t.Error("returned point has wrong x")
	}
	if !py.Equal(y) && !py.Equal(y.Neg()) {
		t.Error("returned point's y is neither root")
	}
}

func TestIsSingularDetectsDegenerateCurve(t *testing.T) {
	f := field.NewField(bigint.FromUint64(bigint.Width256, 29))
	// y^2 = x^3 (a=0, b=0) is singular: 4*0+27*0 = 0.
	c := New(f, f.Zero(), f.Zero())
	if !c.IsSingular() {
		t.Error("y^2=x^3 should be detected as singular")
	}
}

func TestIsSingularAcceptsNonDegenerateCurve(t *testing.T) {
	c, _, _ := toyCurve(t)
	if c.IsSingular() {
		t.Error("y^2=x^3+7 should not be detected as singular")
	}
}
