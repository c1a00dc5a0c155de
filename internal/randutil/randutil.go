// Package randutil centralizes the crypto/rand rejection-sampling habit
// the teacher repeats inline in eckey.go and ecdsa.go (direct rand.Read
// calls, no DRBG abstraction) so curve, ecdsa, and elgamal share one
// implementation instead of three copies.
package randutil

import (
	"crypto/rand"

	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/ecerr"
)

// MaxAttempts bounds every rejection-sampling loop in this package,
// matching spec.md §7's BudgetExhausted contract (N >= 1000).
const MaxAttempts = 1000

// UintBelow samples a uniform value in [0, modulus) of the given digit
// width by rejection sampling over crypto/rand.
func UintBelow(width int, modulus bigint.BigUint) (bigint.BigUint, error) {
	buf := make([]byte, width*4)
	// Candidates keep only modulus.BitLen() bits, so each draw is accepted
	// with probability above 1/2 however small the modulus is.
	mask := bigint.New(width).Sub(bigint.FromUint64(width, 1)).Shr(width*32 - modulus.BitLen())
	for i := 0; i < MaxAttempts; i++ {
		if _, err := rand.Read(buf); err != nil {
			ecerr.Preconditionf("randutil: crypto/rand failure: %v", err)
		}
		v := bigint.FromBytesBE(buf).And(mask)
		if v.Cmp(modulus) < 0 {
			return v, nil
		}
	}
	return bigint.BigUint{}, ecerr.New(ecerr.BudgetExhausted, "randutil: exhausted attempts sampling below modulus")
}

// NonZeroUintBelow samples a uniform value in [1, modulus) — the shape
// ECDSA's nonce and both protocols' private scalars need.
func NonZeroUintBelow(width int, modulus bigint.BigUint) (bigint.BigUint, error) {
	for i := 0; i < MaxAttempts; i++ {
		v, err := UintBelow(width, modulus)
		if err != nil {
			return bigint.BigUint{}, err
		}
		if !v.IsZero() {
			return v, nil
		}
	}
	return bigint.BigUint{}, ecerr.New(ecerr.BudgetExhausted, "randutil: exhausted attempts sampling a non-zero value")
}
