// Package ecdsa implements digital signatures over a curve.Curve, per
// spec.md §6/§7 (component C7): a thin composition over the curve
// layer, not a cryptographic primitive in its own right. Domain
// parameter search (Generate) is the one non-trivial piece: it hunts
// for a curve over the caller's prime with prime group order, the way
// a real deployment would pin down (p, a, b, G, n) once and reuse it.
package ecdsa

import (
	"math/big"

	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/curve"
	"github.com/hackerman-ru/ecguide/ecerr"
	"github.com/hackerman-ru/ecguide/field"
	"github.com/hackerman-ru/ecguide/internal/randutil"
	"github.com/hackerman-ru/ecguide/schoof"
)

// Params bundles the domain parameters a signature is defined over: a
// curve, a generator of prime order, and that order.
type Params struct {
	Curve *curve.Curve
	G     curve.Point
	N     bigint.BigUint
}

// PrivateKey is a scalar in [1, N).
type PrivateKey struct {
	D bigint.BigUint
}

// PublicKey is D*G.
type PublicKey struct {
	Q curve.Point
}

// Signature is the (r, s) pair spec.md §6 specifies: no DER encoding,
// callers layer that on top if they need it.
type Signature struct {
	R, S bigint.BigUint
}

const maxCurveAttempts = 1000

// Generate searches for domain parameters over F_p whose group order is
// prime and at least 2*securityBits bits wide (the usual rule of thumb:
// an n-bit subgroup order gives ~n/2 bits of discrete-log security).
// It tries random (a, b) pairs, counts points with schoof.PointsNumber,
// and keeps the first prime hit — mirroring spec.md §6's
// "ECDSA.generate(p, security_bits)" as a search rather than a formula,
// since no closed form produces a curve of prescribed prime order.
func Generate(p bigint.BigUint, securityBits int, opts ...schoof.Option) (*Params, error) {
	f := field.NewField(p)
	width := p.Width()

	for attempt := 0; attempt < maxCurveAttempts; attempt++ {
		av, err := randutil.UintBelow(width, p)
		if err != nil {
			return nil, err
		}
		bv, err := randutil.UintBelow(width, p)
		if err != nil {
			return nil, err
		}
		a, b := f.Element(av), f.Element(bv)

		c := curve.New(f, a, b)
		if c.IsSingular() {
			continue
		}

		n, err := schoof.PointsNumber(c, opts...)
		if err != nil {
			continue
		}
		if n.BitLen() < 2*securityBits {
			continue
		}
		if !isProbablyPrime(n) {
			continue
		}

		g, err := c.RandomPoint(curve.Normal)
		if err != nil || g.IsZero() {
			continue
		}
		// #E(F_p) = n is prime, so every non-identity point generates
		// the full group by Lagrange's theorem.
		return &Params{Curve: c, G: g, N: n}, nil
	}
	return nil, ecerr.New(ecerr.BudgetExhausted, "ecdsa: no suitable curve found within attempt budget")
}

// isProbablyPrime bridges to math/big's Miller-Rabin for the one check
// BigUint has no native primality test for; used only for this
// scalar-level decision, never for field or curve arithmetic.
func isProbablyPrime(n bigint.BigUint) bool {
	return new(big.Int).SetBytes(n.Bytes()).ProbablyPrime(20)
}

// GenerateKeys samples a uniform private scalar in [1, N) and derives
// the matching public point.
func GenerateKeys(p Params) (*PrivateKey, *PublicKey, error) {
	d, err := randutil.NonZeroUintBelow(p.N.Width(), p.N)
	if err != nil {
		return nil, nil, err
	}
	q := curve.ScalarMul(p.G, d, curve.DefaultWindow)
	return &PrivateKey{D: d}, &PublicKey{Q: q}, nil
}

// scalarField treats N as a prime modulus for nonce/scalar arithmetic,
// reusing field.Field rather than hand-rolling mod-n arithmetic
// separately (n is prime for any curve ecdsa.Generate returns, and
// callers supplying their own Params are expected to do the same).
func scalarField(n bigint.BigUint) *field.Field {
	return field.NewField(n)
}

// reduceModN takes a curve x-coordinate (reduced mod p, the curve's
// field modulus) and reinterprets its integer value modulo n, the
// generator order — a different modulus, so this goes through
// math/big rather than field.Field arithmetic, exactly like the CRT
// bookkeeping in schoof.PointsNumber.
func reduceModN(x bigint.BigUint, n bigint.BigUint) bigint.BigUint {
	xBig := new(big.Int).SetBytes(x.Bytes())
	nBig := new(big.Int).SetBytes(n.Bytes())
	xBig.Mod(xBig, nBig)
	buf := make([]byte, n.Width()*4)
	xBig.FillBytes(buf)
	return bigint.FromBytesBE(buf)
}

// Sign produces a signature over a pre-hashed message (the caller
// hashes; spec.md treats hashing as out of scope). It loops on a bad
// nonce (r == 0 or s == 0) until a valid signature is produced, per
// spec.md §7's "ECDSA signing loops on bad k until a valid signature
// is produced."
func Sign(p Params, priv *PrivateKey, hash bigint.BigUint) (*Signature, error) {
	fn := scalarField(p.N)
	width := p.N.Width()
	z := fn.Element(reduceModN(hash, p.N))
	d := fn.Element(priv.D)

	for attempt := 0; attempt < maxCurveAttempts; attempt++ {
		k, err := randutil.NonZeroUintBelow(width, p.N)
		if err != nil {
			return nil, err
		}

		R := curve.ScalarMul(p.G, k, curve.DefaultWindow)
		if R.IsZero() {
			continue
		}
		rx, _ := R.Affine()
		r := reduceModN(rx.Value(), p.N)
		if r.IsZero() {
			continue
		}

		kInv, err := fn.Element(k).Inverse()
		if err != nil {
			continue
		}
		rElem := fn.Element(r)
		s := kInv.Mul(z.Add(rElem.Mul(d)))
		if s.Value().IsZero() {
			continue
		}

		return &Signature{R: r, S: s.Value()}, nil
	}
	return nil, ecerr.New(ecerr.BudgetExhausted, "ecdsa: exhausted attempts finding a usable nonce")
}

// Verify reports whether sig is a valid signature over hash under pub.
// Both r == 0 and s == 0 are rejected, per spec.md §6's wire-format
// contract; it never returns an error, only a boolean.
func Verify(p Params, pub *PublicKey, hash bigint.BigUint, sig *Signature) bool {
	if sig.R.IsZero() || sig.S.IsZero() {
		return false
	}
	if sig.R.Cmp(p.N) >= 0 || sig.S.Cmp(p.N) >= 0 {
		return false
	}

	fn := scalarField(p.N)
	z := fn.Element(reduceModN(hash, p.N))
	r := fn.Element(sig.R)
	s := fn.Element(sig.S)

	w, err := s.Inverse()
	if err != nil {
		return false
	}
	u1 := z.Mul(w)
	u2 := r.Mul(w)

	p1 := curve.ScalarMul(p.G, u1.Value(), curve.DefaultWindow)
	p2 := curve.ScalarMul(pub.Q, u2.Value(), curve.DefaultWindow)
	sum := p1.Add(p2)
	if sum.IsZero() {
		return false
	}

	x, _ := sum.Affine()
	v := reduceModN(x.Value(), p.N)
	return v.Equal(sig.R)
}
