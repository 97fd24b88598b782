package u256

import (
	"math/bits"

	"github.com/rcornwell/bignumsim/internal/simerr"
)

// QuarterBits is the width of one quarter-limb operand to the
// multiply-accumulate instruction family: hardware has no native 256x256
// multiplier, so wide multiplies are built from 64x64->128 partial
// products selected by quarter index.
const QuarterBits = 64

// Quarters is the number of 64-bit quarters in a U256.
const Quarters = Bits / QuarterBits

func checkQuarterIndex(q int) error {
	if q < 0 || q >= Quarters {
		return simerr.New(simerr.IndexRange, "quarter index %d out of range [0,%d)", q, Quarters)
	}
	return nil
}

// Quarter returns the 64-bit quarter q of v (0 = least significant).
func Quarter(v U256, q int) (uint64, error) {
	if err := checkQuarterIndex(q); err != nil {
		return 0, err
	}
	return uint64(v[2*q]) | uint64(v[2*q+1])<<32, nil
}

// MulQuarters multiplies two 64-bit quarter operands, returning the full
// 128-bit product as (lo, hi). This is the primitive the multiply-
// accumulate instruction family performs once per issue, since the
// hardware has no native wider multiplier.
func MulQuarters(a, b uint64) (lo, hi uint64) {
	hi, lo = bits.Mul64(a, b)
	return lo, hi
}

// Mul computes the full 512-bit product a*b as (lo, hi), lo holding bits
// 0-255 and hi holding bits 256-511. It is schoolbook long multiplication
// over the 32-bit limbs, carried with math/bits so that no partial sum
// silently overflows — used as the ground truth a sequence of engine
// mulqacc instructions must reproduce bit for bit.
func Mul(a, b U256) (lo, hi U256) {
	var out [2 * Limbs]uint32
	var carry uint64
	for k := 0; k < 2*Limbs-1; k++ {
		sumLo := carry
		var sumHi uint64
		loI := 0
		if k-(Limbs-1) > loI {
			loI = k - (Limbs - 1)
		}
		hiI := Limbs - 1
		if k < hiI {
			hiI = k
		}
		for i := loI; i <= hiI; i++ {
			j := k - i
			p := uint64(a[i]) * uint64(b[j])
			var c uint64
			sumLo, c = bits.Add64(sumLo, p, 0)
			sumHi += c
		}
		out[k] = uint32(sumLo)
		carry = (sumLo >> 32) | (sumHi << 32)
	}
	out[2*Limbs-1] = uint32(carry)

	copy(lo[:], out[:Limbs])
	copy(hi[:], out[Limbs:])
	return lo, hi
}

// LowMul returns only the low 256 bits of a*b.
func LowMul(a, b U256) U256 {
	lo, _ := Mul(a, b)
	return lo
}
