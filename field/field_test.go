package field

import (
	"testing"

	"github.com/hackerman-ru/ecguide/bigint"
)

func mustParseField(t *testing.T, hex string) *Field {
	t.Helper()
	m, err := bigint.Parse(bigint.Width256, hex)
	if err != nil {
		t.Fatalf("Parse(%q): %v", hex, err)
	}
	return NewField(m)
}

// toy29 is the small field used by scenario S1 in SPEC_FULL.md.
func toy29(t *testing.T) *Field {
	t.Helper()
	return NewField(bigint.FromUint64(bigint.Width256, 29))
}

func TestAddSubInverses(t *testing.T) {
	f := toy29(t)
	a := f.ElementFromUint64(17)
	b := f.ElementFromUint64(24)
	if !a.Add(b).Sub(b).Equal(a) {
		t.Error("(a+b)-b != a")
	}
}

func TestMulDivInverses(t *testing.T) {
	f := toy29(t)
	a := f.ElementFromUint64(17)
	b := f.ElementFromUint64(5)
	q, err := a.Mul(b).Div(b)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Equal(a) {
		t.Error("(a*b)/b != a")
	}
}

func TestInverseZeroIsNotInvertible(t *testing.T) {
	f := toy29(t)
	if f.Zero().IsInvertible() {
		t.Error("zero reported invertible")
	}
	if _, err := f.Zero().Inverse(); err == nil {
		t.Error("expected error inverting zero")
	}
}

func TestInverseRoundTrip(t *testing.T) {
	f := toy29(t)
	for v := uint64(1); v < 29; v++ {
		a := f.ElementFromUint64(v)
		inv, err := a.Inverse()
		if err != nil {
			t.Fatalf("Inverse(%d): %v", v, err)
		}
		if !a.Mul(inv).Equal(f.One()) {
			t.Errorf("%d * inverse(%d) != 1", v, v)
		}
	}
}

func TestSqrtOfSquareRecoversRoot(t *testing.T) {
	f := toy29(t)
	for v := uint64(1); v < 29; v++ {
		a := f.ElementFromUint64(v)
		sq := a.Mul(a)
		r, err := Sqrt(sq)
		if err != nil {
			t.Fatalf("Sqrt(%d^2): %v", v, err)
		}
		if !r.Mul(r).Equal(sq) {
			t.Errorf("sqrt(%d^2)^2 != %d^2", v, v)
		}
	}
}

func TestSqrtOfNonResidueFails(t *testing.T) {
	// 29 ≡ 1 (mod 4): find a value with no square root by exhaustive scan.
	f := toy29(t)
	squares := map[uint64]bool{}
	for v := uint64(0); v < 29; v++ {
		a := f.ElementFromUint64(v)
		squares[uint64(a.Mul(a).Value().Digits()[0])] = true
	}
	found := false
	for v := uint64(0); v < 29; v++ {
		if !squares[v] {
			found = true
			if _, err := Sqrt(f.ElementFromUint64(v)); err == nil {
				t.Errorf("Sqrt(%d) succeeded, want NotASquare", v)
			}
		}
	}
	if !found {
		t.Fatal("test setup error: no non-residue found in F_29")
	}
}

func TestSqrtPMod3Path(t *testing.T) {
	// S6 uses a prime ≡ 3 (mod 4) from the curve tutorial's toy parameters.
	f := NewField(bigint.FromUint64(bigint.Width256, 7))
	four := f.ElementFromUint64(4)
	r, err := Sqrt(four)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Mul(r).Equal(four) {
		t.Error("sqrt(4)^2 != 4 in F_7")
	}
}

func TestSqrtPMod1Path(t *testing.T) {
	// P-224's prime is ≡ 1 (mod 4) (p-1 = 2^96·q), forcing the
	// Tonelli-Shanks table path.
	f := mustParseField(t, "0xffffffffffffffffffffffffffffffff000000000000000000000001")
	four := f.ElementFromUint64(4)
	r, err := Sqrt(four)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Mul(r).Equal(four) {
		t.Error("sqrt(4)^2 != 4 mod P-224 prime")
	}
}

func TestLessIsTotalOrder(t *testing.T) {
	f := toy29(t)
	a := f.ElementFromUint64(3)
	b := f.ElementFromUint64(9)
	if !a.Less(b) || b.Less(a) {
		t.Error("Less is not consistent for (3, 9)")
	}
}

func TestMismatchedFieldsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic mixing elements from different fields")
		}
	}()
	a := toy29(t).ElementFromUint64(1)
	b := NewField(bigint.FromUint64(bigint.Width256, 31)).ElementFromUint64(1)
	a.Add(b)
}
