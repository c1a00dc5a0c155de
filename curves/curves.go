// Package curves supplies named curve parameters: the toy curves
// SPEC_FULL.md §9 scenarios S1/S2 exercise in the algebraic-stack test
// suites, and the real-world secp256k1/NIST P-256 parameters §6 asks
// implementers to test the protocol layer against.
package curves

import (
	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/curve"
	"github.com/hackerman-ru/ecguide/field"
)

// Params bundles a curve with a base point G and a multiple N of its
// order, the shape ecdsa.Generate and elgamal.New both consume. For S2,
// Secp256k1 and P256, N is the prime order of G; for S1 it is not (see
// S1).
type Params struct {
	Curve *curve.Curve
	G     curve.Point
	N     bigint.BigUint
}

func hexUint(s string) bigint.BigUint {
	v, err := bigint.Parse(bigint.Width256, "0x"+s)
	if err != nil {
		panic("curves: malformed constant: " + err.Error())
	}
	return v
}

// S1 is y^2 = x^3 + 7 over F_29 (SPEC_FULL.md's S1 scenario): 30 points,
// trace 0. N is the group order 30; the base point (3, 11) has order 6,
// which divides it.
func S1() Params {
	f := field.NewField(bigint.FromUint64(bigint.Width256, 29))
	c := curve.New(f, f.Zero(), f.ElementFromUint64(7))
	g := c.NormalPoint(f.ElementFromUint64(3), f.ElementFromUint64(11))
	return Params{Curve: c, G: g, N: bigint.FromUint64(bigint.Width256, 30)}
}

// S2 is y^2 = x^3 + x + 1 over F_7 (SPEC_FULL.md's S2 scenario): 5
// points, trace 3, no rational 2-torsion. (2,2) is on the curve:
// 2^3+2+1 = 11 = 4 (mod 7), 2^2 = 4.
func S2() Params {
	f := field.NewField(bigint.FromUint64(bigint.Width256, 7))
	c := curve.New(f, f.One(), f.One())
	g := c.NormalPoint(f.ElementFromUint64(2), f.ElementFromUint64(2))
	return Params{Curve: c, G: g, N: bigint.FromUint64(bigint.Width256, 5)}
}

// Secp256k1 returns the curve and base point the teacher's own
// secp256k1 implementation is specialized to, generalized here to run
// atop the arbitrary-modulus curve/field packages instead of the
// teacher's hand-tuned 5x52 field arithmetic.
func Secp256k1() Params {
	p := hexUint("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F")
	f := field.NewField(p)
	a := f.Zero()
	b := f.ElementFromUint64(7)
	c := curve.New(f, a, b)

	gx := f.Element(hexUint("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798"))
	gy := f.Element(hexUint("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8"))
	g := c.NormalPoint(gx, gy)

	n := hexUint("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141")
	return Params{Curve: c, G: g, N: n}
}

// P256 returns NIST P-256 (secp256r1) parameters, the curve spec.md §6
// suggests implementers cross-check the protocol layer against.
func P256() Params {
	p := hexUint("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFF")
	f := field.NewField(p)
	a := f.Element(hexUint("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFC"))
	b := f.Element(hexUint("5AC635D8AA3A93E7B3EBBD55769886BC651D06B0CC53B0F63BCE3C3E27D2604B"))
	c := curve.New(f, a, b)

	gx := f.Element(hexUint("6B17D1F2E12C4247F8BCE6E563A440F277037D812DEB33A0F4A13945D898C296"))
	gy := f.Element(hexUint("4FE342E2FE1A7F9B8EE7EB4A7C0F9E162BCE33576B315ECECBB6406837BF51F5"))
	g := c.NormalPoint(gx, gy)

	n := hexUint("FFFFFFFF00000000FFFFFFFFFFFFFFFFBCE6FAADA7179E84F3B9CAC2FC632551")
	return Params{Curve: c, G: g, N: n}
}
