package bigint

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
)

func TestAddSubRoundTrip(t *testing.T) {
	// property: (a - b) + b == a (mod 2^B)
	cases := []struct {
		name string
		a, b uint64
	}{
		{"zero", 0, 0},
		{"small", 5, 3},
		{"b_greater", 3, 5},
		{"large", 0xFFFFFFFFFFFFFFFF, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := FromUint64(Width256, c.a)
			b := FromUint64(Width256, c.b)
			got := a.Sub(b).Add(b)
			if !got.Equal(a) {
				t.Errorf("(a-b)+b = %s, want %s", got, a)
			}
		})
	}
}

func TestMulCommutativeAssociative(t *testing.T) {
	a := FromUint64(Width256, 12345)
	b := FromUint64(Width256, 67890)
	c := FromUint64(Width256, 999)

	if !a.Mul(b).Equal(b.Mul(a)) {
		t.Error("multiplication not commutative")
	}
	if !a.Mul(b).Mul(c).Equal(a.Mul(b.Mul(c))) {
		t.Error("multiplication not associative")
	}
}

// toUint256/fromUint256 bridge Width256 values to uint256.Int, used only
// by this cross-check — not adopted as BigUint's storage representation,
// since spec.md §4.1 mandates the digit-array form.
func toUint256(a BigUint) *uint256.Int {
	if a.Width() != Width256 {
		panic("toUint256: only defined for Width256")
	}
	var b [32]byte
	copy(b[:], a.Bytes())
	return new(uint256.Int).SetBytes(b[:])
}

func fromUint256(v *uint256.Int) BigUint {
	b := v.Bytes32()
	return FromBytesBE(b[:])
}

// TestAddMulAgreeWithUint256 cross-checks schoolbook add/mul against
// holiman/uint256's constant-time routines (same wraparound-mod-2^256
// semantics), the same sanity-check habit the pack's eth2030 example
// applies to its own field arithmetic.
func TestAddMulAgreeWithUint256(t *testing.T) {
	cases := []struct {
		name string
		a, b uint64
	}{
		{"zero", 0, 0},
		{"small", 5, 3},
		{"large", 0xFFFFFFFFFFFFFFFF, 0xFFFFFFFFFFFFFFFF},
		{"one_zero", 123456789, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := FromUint64(Width256, c.a)
			b := FromUint64(Width256, c.b)

			gotAdd := a.Add(b)
			wantAdd := fromUint256(new(uint256.Int).Add(toUint256(a), toUint256(b)))
			if !gotAdd.Equal(wantAdd) {
				t.Errorf("Add mismatch against uint256:\n%s", spew.Sdump(gotAdd.Digits(), wantAdd.Digits()))
			}

			gotMul := a.Mul(b)
			wantMul := fromUint256(new(uint256.Int).Mul(toUint256(a), toUint256(b)))
			if !gotMul.Equal(wantMul) {
				t.Errorf("Mul mismatch against uint256:\n%s", spew.Sdump(gotMul.Digits(), wantMul.Digits()))
			}
		})
	}
}

func TestDivModIdentity(t *testing.T) {
	// property: (a/d)*d + (a%d) == a, 0 <= a%d < d
	cases := []struct {
		name string
		a, d uint64
	}{
		{"exact", 100, 5},
		{"remainder", 103, 5},
		{"d_one", 42, 1},
		{"large_divisor", 0xFFFFFFFFFFFF, 0xFFFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := FromUint64(Width256, c.a)
			d := FromUint64(Width256, c.d)
			q, r := a.DivMod(d)
			got := q.Mul(d).Add(r)
			if !got.Equal(a) {
				t.Errorf("q*d+r = %s, want %s", got, a)
			}
			if r.Cmp(d) >= 0 {
				t.Errorf("remainder %s >= divisor %s", r, d)
			}
		})
	}
}

func TestDivModMultiDigitDivisor(t *testing.T) {
	// Force the Knuth Algorithm D path by using a divisor spanning two digits.
	a, err := Parse(Width256, "123456789012345678901234567890")
	if err != nil {
		t.Fatal(err)
	}
	d, err := Parse(Width256, "987654321098765")
	if err != nil {
		t.Fatal(err)
	}
	q, r := a.DivMod(d)
	got := q.Mul(d).Add(r)
	if !got.Equal(a) {
		t.Errorf("q*d+r = %s, want %s", got, a)
	}
	if r.Cmp(d) >= 0 {
		t.Errorf("remainder %s not reduced mod %s", r, d)
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	// S4: hex literal from P-256's prime field modulus round-trips to its
	// known decimal expansion.
	hex := "0xffffffff00000001000000000000000000000000ffffffffffffffffffffffff"
	want := "115792089210356248762697446949407573530086143415290314195533631308867097853951"

	v, err := Parse(Width256, hex)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.String(); got != want {
		t.Errorf("render = %s, want %s", got, want)
	}
}

func TestParsePrefixes(t *testing.T) {
	cases := []struct {
		lit  string
		want uint64
	}{
		{"0x1A", 26},
		{"0b1010", 10},
		{"017", 15},
		{"42", 42},
		{"0", 0},
	}
	for _, c := range cases {
		got, err := Parse(Width256, c.lit)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.lit, err)
		}
		want := FromUint64(Width256, c.want)
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %s, want %d", c.lit, got, c.want)
		}
	}
}

func TestParseRejectsInvalidDigits(t *testing.T) {
	cases := []string{"", "0xg1", "12a", "0b102"}
	for _, lit := range cases {
		if _, err := Parse(Width256, lit); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", lit)
		}
	}
}

func TestShiftsAreSymmetric(t *testing.T) {
	v, _ := Parse(Width256, "0xABCD1234")
	shifted := v.Shl(40).Shr(40)
	// Shr after Shl of a value small enough not to overflow the width
	// recovers the original for shifts that stay in range.
	if !shifted.Equal(v) {
		t.Errorf("Shl/Shr round trip = %s, want %s", shifted, v)
	}
}

func TestDivideByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on division by zero")
		}
	}()
	a := FromUint64(Width256, 1)
	zero := New(Width256)
	a.DivMod(zero)
}

func TestWidthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on width mismatch")
		}
	}()
	a := FromUint64(Width256, 1)
	b := New(Width512)
	a.Add(b)
}
