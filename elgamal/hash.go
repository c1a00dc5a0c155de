package elgamal

import (
	sha256simd "github.com/minio/sha256-simd"

	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/curve"
)

// DefaultHash digests a point's affine encoding (X || Y, big-endian,
// fixed-width) with sha256-simd rather than crypto/sha256 — the same
// swap the teacher makes for its own message hashing — and widens the
// 32-byte digest to the field's width before returning it, so callers
// can XOR it directly against a message of that width.
func DefaultHash(p curve.Point) bigint.BigUint {
	x, y := p.Affine()
	h := sha256simd.New()
	h.Write(x.Value().Bytes())
	h.Write(y.Value().Bytes())
	sum := h.Sum(nil)
	return bigint.FromBytesBE(sum).WithWidth(x.Value().Width())
}
