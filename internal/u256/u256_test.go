package u256

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/rcornwell/bignumsim/internal/simerr"
)

func toBig(v U256) *big.Int {
	b := new(big.Int)
	for i := Limbs - 1; i >= 0; i-- {
		b.Lsh(b, LimbBits)
		b.Or(b, big.NewInt(int64(v[i])))
	}
	return b
}

func fromBig(b *big.Int) U256 {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Bits), big.NewInt(1))
	b = new(big.Int).And(b, mask)
	var v U256
	for i := 0; i < Limbs; i++ {
		limb := new(big.Int).And(b, big.NewInt(0xffffffff))
		v[i] = uint32(limb.Uint64())
		b.Rsh(b, LimbBits)
	}
	return v
}

func randU256(r *rand.Rand) U256 {
	var v U256
	for i := range v {
		v[i] = r.Uint32()
	}
	return v
}

func TestAddSubRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Bits), big.NewInt(1))
	for i := 0; i < 500; i++ {
		a := randU256(r)
		b := randU256(r)
		sum, cout := Add(a, b, 0)

		wantSum := new(big.Int).Add(toBig(a), toBig(b))
		wantCarry := uint32(0)
		if wantSum.Cmp(mask) > 0 {
			wantCarry = 1
		}
		wantSum.And(wantSum, mask)

		if toBig(sum).Cmp(wantSum) != 0 || cout != wantCarry {
			t.Fatalf("Add(%x,%x) = %x,%d want %x,%d", a, b, sum, cout, wantSum, wantCarry)
		}

		diff, bout := Sub(sum, b, 0)
		if diff != a {
			t.Fatalf("Sub did not invert Add: a=%x diff=%x bout=%d", a, diff, bout)
		}
	}
}

func TestCmp(t *testing.T) {
	cases := []struct {
		a, b U256
		want int
	}{
		{Zero, Zero, 0},
		{FromUint64(1), Zero, 1},
		{Zero, FromUint64(1), -1},
		{FromUint64(5), FromUint64(5), 0},
	}
	for _, c := range cases {
		if got := Cmp(c.a, c.b); got != c.want {
			t.Errorf("Cmp(%v,%v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestBitwise(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		a := randU256(r)
		b := randU256(r)
		and := And(a, b)
		or := Or(a, b)
		xor := Xor(a, b)
		not := Not(a)
		for lim := 0; lim < Limbs; lim++ {
			if and[lim] != a[lim]&b[lim] {
				t.Fatalf("And mismatch at limb %d", lim)
			}
			if or[lim] != a[lim]|b[lim] {
				t.Fatalf("Or mismatch at limb %d", lim)
			}
			if xor[lim] != a[lim]^b[lim] {
				t.Fatalf("Xor mismatch at limb %d", lim)
			}
			if not[lim] != ^a[lim] {
				t.Fatalf("Not mismatch at limb %d", lim)
			}
		}
	}
}

func TestShifts(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Bits), big.NewInt(1))
	for i := 0; i < 500; i++ {
		a := randU256(r)
		n := uint(r.Intn(Bits + 1))

		left := Shl(a, n)
		wantLeft := new(big.Int).Lsh(toBig(a), n)
		wantLeft.And(wantLeft, mask)
		if toBig(left).Cmp(wantLeft) != 0 {
			t.Fatalf("Shl(%x,%d) = %x want %x", a, n, left, wantLeft)
		}

		right := Shr(a, n)
		wantRight := new(big.Int).Rsh(toBig(a), n)
		if toBig(right).Cmp(wantRight) != 0 {
			t.Fatalf("Shr(%x,%d) = %x want %x", a, n, right, wantRight)
		}
	}
}

func TestShrConcat(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Bits), big.NewInt(1))
	for i := 0; i < 500; i++ {
		hi := randU256(r)
		lo := randU256(r)
		n := uint(r.Intn(Bits + 1))

		got := ShrConcat(hi, lo, n)

		full := new(big.Int).Lsh(toBig(hi), Bits)
		full.Or(full, toBig(lo))
		full.Rsh(full, n)
		full.And(full, mask)

		if toBig(got).Cmp(full) != 0 {
			t.Fatalf("ShrConcat(hi=%x,lo=%x,%d) = %x want %x", hi, lo, n, got, full)
		}
	}
}

func TestLimbAccessors(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 500; i++ {
		v := randU256(r)
		idx := r.Intn(Limbs)
		got, err := GetLimb(v, idx)
		if err != nil {
			t.Fatalf("GetLimb: %v", err)
		}
		if got != v[idx] {
			t.Fatalf("GetLimb(%d) = %x want %x", idx, got, v[idx])
		}

		x := r.Uint32()
		v2, err := SetLimb(v, idx, x)
		if err != nil {
			t.Fatalf("SetLimb: %v", err)
		}
		for lim := 0; lim < Limbs; lim++ {
			if lim == idx {
				if v2[lim] != x {
					t.Fatalf("SetLimb did not write limb %d", idx)
				}
				continue
			}
			if v2[lim] != v[lim] {
				t.Fatalf("SetLimb disturbed limb %d", lim)
			}
		}
	}

	if _, err := GetLimb(Zero, -1); !simerr.Is(err, simerr.IndexRange) {
		t.Fatalf("GetLimb(-1) err = %v, want IndexRange", err)
	}
	if _, err := GetLimb(Zero, Limbs); !simerr.Is(err, simerr.IndexRange) {
		t.Fatalf("GetLimb(Limbs) err = %v, want IndexRange", err)
	}
}

func TestHalfLimbAccessors(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for i := 0; i < 500; i++ {
		v := randU256(r)
		idx := r.Intn(HalfLimbs)
		got, err := GetHalfLimb(v, idx)
		if err != nil {
			t.Fatalf("GetHalfLimb: %v", err)
		}
		limb := v[idx/2]
		var want uint16
		if idx%2 == 0 {
			want = uint16(limb)
		} else {
			want = uint16(limb >> 16)
		}
		if got != want {
			t.Fatalf("GetHalfLimb(%d) = %x want %x", idx, got, want)
		}

		x := uint16(r.Uint32())
		v2, err := SetHalfLimb(v, idx, x)
		if err != nil {
			t.Fatalf("SetHalfLimb: %v", err)
		}
		got2, _ := GetHalfLimb(v2, idx)
		if got2 != x {
			t.Fatalf("SetHalfLimb did not take effect: got %x want %x", got2, x)
		}
		// other half-limb of the same limb must be untouched
		otherIdx := idx ^ 1
		otherBefore, _ := GetHalfLimb(v, otherIdx)
		otherAfter, _ := GetHalfLimb(v2, otherIdx)
		if otherBefore != otherAfter {
			t.Fatalf("SetHalfLimb disturbed sibling half-limb")
		}
	}

	if _, err := GetHalfLimb(Zero, -1); !simerr.Is(err, simerr.IndexRange) {
		t.Fatalf("GetHalfLimb(-1) err = %v, want IndexRange", err)
	}
}

func TestHalfWordAccessors(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		v := randU256(r)
		idx := r.Intn(HalfWords)
		hw, err := GetHalfWord(v, idx)
		if err != nil {
			t.Fatalf("GetHalfWord: %v", err)
		}
		for k := 0; k < 4; k++ {
			if hw[k] != v[idx*4+k] {
				t.Fatalf("GetHalfWord(%d)[%d] = %x want %x", idx, k, hw[k], v[idx*4+k])
			}
		}

		var nx HalfWord
		for k := range nx {
			nx[k] = r.Uint32()
		}
		v2, err := SetHalfWord(v, idx, nx)
		if err != nil {
			t.Fatalf("SetHalfWord: %v", err)
		}
		other := idx ^ 1
		for k := 0; k < 4; k++ {
			if v2[other*4+k] != v[other*4+k] {
				t.Fatalf("SetHalfWord disturbed other half at limb %d", other*4+k)
			}
			if v2[idx*4+k] != nx[k] {
				t.Fatalf("SetHalfWord did not write limb %d", idx*4+k)
			}
		}
	}

	if _, err := GetHalfWord(Zero, 2); !simerr.Is(err, simerr.IndexRange) {
		t.Fatalf("GetHalfWord(2) err = %v, want IndexRange", err)
	}
}

func TestMulMatchesBig(t *testing.T) {
	r := rand.New(rand.NewSource(8))
	for i := 0; i < 2000; i++ {
		a := randU256(r)
		b := randU256(r)
		lo, hi := Mul(a, b)

		want := new(big.Int).Mul(toBig(a), toBig(b))
		wantLo := new(big.Int).And(want, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Bits), big.NewInt(1)))
		wantHi := new(big.Int).Rsh(want, Bits)

		if toBig(lo).Cmp(wantLo) != 0 {
			t.Fatalf("Mul lo mismatch: a=%x b=%x got=%x want=%x", a, b, lo, wantLo)
		}
		if toBig(hi).Cmp(wantHi) != 0 {
			t.Fatalf("Mul hi mismatch: a=%x b=%x got=%x want=%x", a, b, hi, wantHi)
		}
	}
}

func TestMulQuartersMatchesBig(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	for i := 0; i < 2000; i++ {
		a := r.Uint64()
		b := r.Uint64()
		lo, hi := MulQuarters(a, b)
		want := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
		got := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
		got.Or(got, new(big.Int).SetUint64(lo))
		if got.Cmp(want) != 0 {
			t.Fatalf("MulQuarters(%x,%x) = lo=%x hi=%x want=%x", a, b, lo, hi, want)
		}
	}
}
