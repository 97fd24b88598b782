package driver

import (
	"math/big"

	"github.com/rcornwell/bignumsim/internal/state"
	"github.com/rcornwell/bignumsim/internal/u256"
)

// math/big is used only at this boundary, to marshal multi-word
// big-number values into/out of a sequence of 256-bit DMEM words — never
// inside internal/u256 itself, which must stay a fixed-width kernel
// (SPEC_FULL.md §2).

// u256FromBig truncates v (assumed non-negative) to its low 256 bits.
func u256FromBig(v *big.Int) u256.U256 {
	var out u256.U256
	bytes := v.Bytes() // big-endian
	for i, b := range bytes {
		byteIdx := len(bytes) - 1 - i
		if byteIdx >= u256.Bits/8 {
			continue
		}
		limb := byteIdx / 4
		shift := uint((byteIdx % 4) * 8)
		out[limb] |= uint32(b) << shift
	}
	return out
}

func bigFromU256(v u256.U256) *big.Int {
	out := new(big.Int)
	for i := u256.Limbs - 1; i >= 0; i-- {
		out.Lsh(out, 32)
		out.Or(out, new(big.Int).SetUint64(uint64(v[i])))
	}
	return out
}

// LoadFullBnVal writes value, little-endian as a sequence of bnWords
// 256-bit DMEM words starting at ptr, matching sim_rsa_tests.py's
// load_full_bn_val and spec.md §4.D/§8 invariant 8.
func LoadFullBnVal(s *state.State, ptr int, bnWords int, value *big.Int) error {
	rem := new(big.Int).Set(value)
	mask := new(big.Int).Lsh(big.NewInt(1), u256.Bits)
	for w := 0; w < bnWords; w++ {
		word := new(big.Int).Mod(rem, mask)
		if err := s.DMEM().Set(ptr+w, u256FromBig(word)); err != nil {
			return err
		}
		rem.Rsh(rem, u256.Bits)
	}
	return nil
}

// GetFullBnVal reads bnWords 256-bit DMEM words starting at ptr and
// reassembles them, little-endian, into a single big.Int: the inverse of
// LoadFullBnVal.
func GetFullBnVal(s *state.State, ptr int, bnWords int) (*big.Int, error) {
	out := new(big.Int)
	for w := bnWords - 1; w >= 0; w-- {
		word, err := s.DMEM().Get(ptr + w)
		if err != nil {
			return nil, err
		}
		out.Lsh(out, u256.Bits)
		out.Or(out, bigFromU256(word))
	}
	return out, nil
}

// LoadBlinding packs and writes the eight-field blinding word (spec.md
// §4.D's `load_blinding`) into DMEM at OffsetBlinding. pad1 is a 96-bit
// value spread across three limbs, pad2 a 64-bit value spread across two,
// matching the reference's wider-than-one-limb pad fields.
func LoadBlinding(s *state.State, pubExp uint32, rnd uint64, pad1, pad2 *big.Int) error {
	pad1Bytes := u256FromBig(pad1)
	pad2Bytes := u256FromBig(pad2)
	bw := BlindingWord{
		PubExp:  pubExp,
		Pad1Lo:  pad1Bytes[0],
		Pad1Mid: pad1Bytes[1],
		Pad1Hi:  pad1Bytes[2],
		RndLo:   uint32(rnd),
		RndHi:   uint32(rnd >> 32),
		Pad2Lo:  pad2Bytes[0],
		Pad2Hi:  pad2Bytes[1],
	}
	return s.DMEM().Set(OffsetBlinding, PackBlindingWord(bw))
}
