// Package elgamal implements ElGamal encryption over a curve.Curve, per
// spec.md §6/§7 (component C7): a thin composition over curve, not a
// primitive of its own. Both variants spec.md §6 calls for are here:
// the hashed variant (H : Point -> BigUint, ciphertext = m XOR H(kQ))
// and the standard variant (curve-encoded message, C = M + kQ), the
// latter supplemented from original_source/src/encryption/el-gamal.cpp
// per SPEC_FULL.md §6.
package elgamal

import (
	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/curve"
	"github.com/hackerman-ru/ecguide/ecerr"
	"github.com/hackerman-ru/ecguide/field"
	"github.com/hackerman-ru/ecguide/internal/cache"
	"github.com/hackerman-ru/ecguide/internal/randutil"
)

// ElGamal bundles the domain parameters encryption is defined over.
type ElGamal struct {
	Curve *curve.Curve
	G     curve.Point
	N     bigint.BigUint
}

// New builds an ElGamal scheme over curve c with generator g of order
// n. A singular curve (4a^3+27b^2 == 0) is rejected immediately, per
// SPEC_FULL.md §5.7.
func New(c *curve.Curve, g curve.Point, n bigint.BigUint) (*ElGamal, error) {
	if c.IsSingular() {
		return nil, ecerr.New(ecerr.InvalidInput, "elgamal: curve is singular (4a^3+27b^2 == 0)")
	}
	return &ElGamal{Curve: c, G: g, N: n}, nil
}

// GenerateKeys samples a uniform private scalar in [1, N) and derives
// the matching public point Q = d*G.
func (e *ElGamal) GenerateKeys() (priv bigint.BigUint, pub curve.Point, err error) {
	d, err := randutil.NonZeroUintBelow(e.N.Width(), e.N)
	if err != nil {
		return bigint.BigUint{}, nil, err
	}
	q := curve.ScalarMul(e.G, d, curve.DefaultWindow)
	return d, q, nil
}

func (e *ElGamal) randomNonce() (bigint.BigUint, error) {
	return randutil.NonZeroUintBelow(e.N.Width(), e.N)
}

// Encrypt is the standard (non-hashed) variant: message m is mapped to
// a curve point M (see MapToCurve), and the ciphertext is the pair
// (R, C) = (k*G, M + k*Q). Per spec.md §7, it loops on map-to-curve
// failure — MapToCurve already bounds its own retries, so the only
// failure Encrypt can see here is a genuinely exhausted budget.
func (e *ElGamal) Encrypt(m bigint.BigUint, pub curve.Point) (R, C curve.Point, err error) {
	M, err := MapToCurve(e.Curve, m)
	if err != nil {
		return nil, nil, err
	}
	k, err := e.randomNonce()
	if err != nil {
		return nil, nil, err
	}
	R = curve.ScalarMul(e.G, k, curve.DefaultWindow)
	kQ := curve.ScalarMul(pub, k, curve.DefaultWindow)
	C = M.Add(kQ)
	return R, C, nil
}

// Decrypt reverses Encrypt: M = C - priv*R, then unmaps M back to the
// original integer with UnmapFromCurve, which keeps the low half of M's
// x-coordinate.
func (e *ElGamal) Decrypt(R, C curve.Point, priv bigint.BigUint) bigint.BigUint {
	privR := curve.ScalarMul(R, priv, curve.DefaultWindow)
	M := C.Add(privR.Neg())
	x, _ := M.Affine()
	return UnmapFromCurve(e.Curve.Field(), x.Value())
}

// mapToCurveAttempts bounds MapToCurve's per-message candidate search,
// matching spec.md §7's BudgetExhausted contract for the map-to-curve
// loop (N >= 1000 attempts). The eprint note el-gamal.cpp cites
// (https://eprint.iacr.org/2013/373.pdf, page 5) says 3 iterations
// suffice in practice for large p; this budget is generous headroom
// above that.
const mapToCurveAttempts = 1000

// zeroMaskCache holds the high/low split mask for each field modulus
// seen, the second of spec.md §5's three process-wide caches
// (Tonelli-Shanks's tsTable in field.go is the first): map_to_curve and
// map_to_uint in el-gamal.cpp both memoize this mask in a
// std::map<uint, uint> keyed by the modulus rather than recomputing the
// bit-length shift on every call.
var zeroMaskCache = cache.New[bigint.BigUint]()

// zeroMaskFor returns the mask that clears the low half of a field
// element's bits, sized to half of the modulus's actual bit length
// (el-gamal.cpp's zero_mask = (full_bits >> l) << l, l = bit_size(p)/2).
func zeroMaskFor(f *field.Field) bigint.BigUint {
	p := f.Modulus()
	return zeroMaskCache.GetOrCompute(p.String(), func() bigint.BigUint {
		width := p.Width()
		l := p.BitLen() >> 1
		fullBits := bigint.New(width).Sub(bigint.FromUint64(width, 1))
		return fullBits.Shr(l).Shl(l)
	})
}

// MapToCurve encodes an integer message as a curve point per spec.md
// §4.5/el-gamal.cpp's map_to_curve: the candidate x-coordinate is
// random_high_half ‖ m, split at half the modulus's bit length — the
// message occupies the low-order half of x's bits (so it survives the
// split intact only when it fits in that many bits), and a fresh random
// value fills the high-order half on every retry until the resulting x
// lands on the curve. Reversed by UnmapFromCurve.
func MapToCurve(c *curve.Curve, m bigint.BigUint) (curve.Point, error) {
	f := c.Field()
	mask := zeroMaskFor(f)
	msgLow := m.Xor(m.And(mask))
	for i := 0; i < mapToCurveAttempts; i++ {
		r, err := randutil.UintBelow(m.Width(), f.Modulus())
		if err != nil {
			return nil, err
		}
		xv := r.And(mask).Or(msgLow)
		if xv.Cmp(f.Modulus()) >= 0 {
			continue
		}
		x := f.Element(xv)
		pt, err := c.PointWithXEqualTo(x, curve.Normal)
		if err == nil {
			return pt, nil
		}
		if !ecerr.Is(err, ecerr.NotASquare) {
			return nil, err
		}
	}
	return nil, ecerr.New(ecerr.BudgetExhausted, "elgamal: map-to-curve exhausted attempts")
}

// UnmapFromCurve reverses MapToCurve: clear the high-order half of x's
// bits (el-gamal.cpp's map_to_uint), recovering the message that was
// OR'd into the low half.
func UnmapFromCurve(f *field.Field, x bigint.BigUint) bigint.BigUint {
	mask := zeroMaskFor(f)
	return x.Xor(x.And(mask))
}

// Hasher digests a curve point down to a BigUint, the shared secret
// Encrypt/Decrypt XOR the message against in the hashed variant.
type Hasher func(curve.Point) bigint.BigUint

// EncryptHashed is the hashed variant: ciphertext = m XOR H(k*Q),
// R = k*G. The caller supplies H (see DefaultHash for the
// sha256-simd-backed default).
func (e *ElGamal) EncryptHashed(m bigint.BigUint, pub curve.Point, h Hasher) (R curve.Point, ciphertext bigint.BigUint, err error) {
	k, err := e.randomNonce()
	if err != nil {
		return nil, bigint.BigUint{}, err
	}
	R = curve.ScalarMul(e.G, k, curve.DefaultWindow)
	kQ := curve.ScalarMul(pub, k, curve.DefaultWindow)
	secret := h(kQ).WithWidth(m.Width())
	return R, m.Xor(secret), nil
}

// DecryptHashed reverses EncryptHashed: recompute the shared secret
// from priv*R and XOR it back out of the ciphertext.
func (e *ElGamal) DecryptHashed(R curve.Point, ciphertext bigint.BigUint, priv bigint.BigUint, h Hasher) bigint.BigUint {
	privR := curve.ScalarMul(R, priv, curve.DefaultWindow)
	secret := h(privR).WithWidth(ciphertext.Width())
	return ciphertext.Xor(secret)
}
