package ecdsa

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/hackerman-ru/ecguide/bigint"
	"github.com/hackerman-ru/ecguide/curves"
)

// These tests only make sense when the curve under test is actually
// secp256k1: they check this module's generic-modulus arithmetic
// against btcsuite/btcd's hand-tuned implementation of that one curve,
// per SPEC_FULL.md §3's note that btcec/v2 is kept as a cross-reference
// for the protocol layer rather than as the curve's storage
// representation.

func secp256k1Params() Params {
	p := curves.Secp256k1()
	return Params{Curve: p.Curve, G: p.G, N: p.N}
}

func TestPublicKeyMatchesBtcec(t *testing.T) {
	p := secp256k1Params()
	priv, pub, err := GenerateKeys(p)
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}

	_, btcecPub := btcec.PrivKeyFromBytes(priv.D.Bytes())
	uncompressed := btcecPub.SerializeUncompressed()
	wantX := bigint.FromBytesBE(uncompressed[1:33])
	wantY := bigint.FromBytesBE(uncompressed[33:65])

	x, y := pub.Q.Affine()
	if !x.Value().Equal(wantX) || !y.Value().Equal(wantY) {
		t.Error("derived public key does not match btcec's scalar-multiplication result")
	}
}

func TestSignatureVerifiesUnderBtcec(t *testing.T) {
	p := secp256k1Params()
	priv, _, err := GenerateKeys(p)
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}

	hash := sha256.Sum256([]byte("cross-reference message"))
	hashVal := bigint.FromBytesBE(hash[:])

	sig, err := Sign(p, priv, hashVal)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, btcecPub := btcec.PrivKeyFromBytes(priv.D.Bytes())

	var r, s btcec.ModNScalar
	r.SetByteSlice(sig.R.Bytes())
	s.SetByteSlice(sig.S.Bytes())
	btcecSig := btcecdsa.NewSignature(&r, &s)

	if !btcecSig.Verify(hash[:], btcecPub) {
		t.Error("btcec rejected a signature produced by ecdsa.Sign over secp256k1")
	}
}

func TestVerifyAcceptsBtcecSignature(t *testing.T) {
	p := secp256k1Params()
	priv, pub, err := GenerateKeys(p)
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}

	btcecPriv, _ := btcec.PrivKeyFromBytes(priv.D.Bytes())

	hash := sha256.Sum256([]byte("cross-reference message, other direction"))
	btcecSig := btcecdsa.Sign(btcecPriv, hash[:])
	serialized := btcecSig.Serialize() // DER; decode via the raw scalars instead

	r, s, err := parseDER(serialized)
	if err != nil {
		t.Fatalf("parseDER: %v", err)
	}

	sig := &Signature{R: bigint.FromBytesBE(r), S: bigint.FromBytesBE(s)}
	hashVal := bigint.FromBytesBE(hash[:])
	if !Verify(p, pub, hashVal, sig) {
		t.Error("ecdsa.Verify rejected a signature produced by btcec")
	}
}

// parseDER extracts the big-endian, left-zero-padded-to-32-bytes r and s
// integers from a DER-encoded ECDSA signature (SEQUENCE of two INTEGERs).
// Minimal, not a general DER decoder: it trusts btcec's own encoder.
func parseDER(der []byte) (r, s []byte, err error) {
	if len(der) < 8 || der[0] != 0x30 {
		return nil, nil, errNotDER
	}
	i := 2
	rLen := int(der[i+1])
	rBytes := der[i+2 : i+2+rLen]
	i += 2 + rLen
	sLen := int(der[i+1])
	sBytes := der[i+2 : i+2+sLen]

	return padTo32(rBytes), padTo32(sBytes), nil
}

func padTo32(b []byte) []byte {
	for len(b) > 0 && b[0] == 0x00 && len(b) > 32 {
		b = b[1:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

var errNotDER = &derError{"malformed DER signature"}

type derError struct{ msg string }

func (e *derError) Error() string { return e.msg }
