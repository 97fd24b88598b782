package driver

import (
	"github.com/rcornwell/bignumsim/internal/config"
	"github.com/rcornwell/bignumsim/internal/u256"
)

// PtrWord is the decoded form of one calling-convention pointer word:
// eight 32-bit fields packed little-endian into a single 256-bit DMEM
// word (spec.md §6).
type PtrWord struct {
	Mod, Dinv, RR, A, B, C uint32
	BnWords                uint32
}

// addrUnit converts a word offset to whatever unit the pointer word
// itself should carry: word-addressed programs store the offset as-is,
// byte-addressed ones store offset*32 (spec.md §9's byte-vs-word note).
// DMEM is always word-indexed regardless; this only affects what value a
// loaded program's own pointer words encode.
func addrUnit(cfg config.Config, wordOffset uint32) uint32 {
	if cfg.DMEMByteAddressing {
		return wordOffset * 32
	}
	return wordOffset
}

// PackPtrWord builds the packed pointer word for slot locations
// LocInPtrs/LocSqrPtrs/LocMulPtrs/LocOutPtrs, converting word offsets to
// the addressing unit cfg selects.
func PackPtrWord(cfg config.Config, p PtrWord) u256.U256 {
	var v u256.U256
	v, _ = u256.SetLimb(v, 0, addrUnit(cfg, p.Mod))
	v, _ = u256.SetLimb(v, 1, addrUnit(cfg, p.Dinv))
	v, _ = u256.SetLimb(v, 2, addrUnit(cfg, p.RR))
	v, _ = u256.SetLimb(v, 3, addrUnit(cfg, p.A))
	v, _ = u256.SetLimb(v, 4, addrUnit(cfg, p.B))
	v, _ = u256.SetLimb(v, 5, addrUnit(cfg, p.C))
	v, _ = u256.SetLimb(v, 6, p.BnWords)
	v, _ = u256.SetLimb(v, 7, p.BnWords-1)
	return v
}

// UnpackPtrWord is PackPtrWord's inverse, recovering the word offsets
// (undoing the byte-addressing multiplier cfg selected) and bn_words.
func UnpackPtrWord(cfg config.Config, v u256.U256) PtrWord {
	lim := func(i int) uint32 {
		x, _ := u256.GetLimb(v, i)
		if cfg.DMEMByteAddressing {
			return x / 32
		}
		return x
	}
	bnWords, _ := u256.GetLimb(v, 6)
	return PtrWord{
		Mod:     lim(0),
		Dinv:    lim(1),
		RR:      lim(2),
		A:       lim(3),
		B:       lim(4),
		C:       lim(5),
		BnWords: bnWords,
	}
}

// BlindingWord is the decoded form of the blinding word's eight packed
// fields (spec.md §6): pubexp plus a 96-bit pad1 and a 64-bit pad2, each
// spread across multiple limbs, plus a 64-bit rnd value split into two
// 32-bit halves.
type BlindingWord struct {
	PubExp           uint32
	Pad1Lo, Pad1Mid, Pad1Hi uint32
	RndLo, RndHi     uint32
	Pad2Lo, Pad2Hi   uint32
}

// PackBlindingWord packs a BlindingWord into the single 256-bit DMEM word
// the `load_blinding` primitive expects at OffsetBlinding (spec.md §4.D,
// §6): `[pubexp, pad1_lo, pad1_mid, pad1_hi, rnd_lo, rnd_hi, pad2_lo,
// pad2_hi]`.
func PackBlindingWord(b BlindingWord) u256.U256 {
	var v u256.U256
	v, _ = u256.SetLimb(v, 0, b.PubExp)
	v, _ = u256.SetLimb(v, 1, b.Pad1Lo)
	v, _ = u256.SetLimb(v, 2, b.Pad1Mid)
	v, _ = u256.SetLimb(v, 3, b.Pad1Hi)
	v, _ = u256.SetLimb(v, 4, b.RndLo)
	v, _ = u256.SetLimb(v, 5, b.RndHi)
	v, _ = u256.SetLimb(v, 6, b.Pad2Lo)
	v, _ = u256.SetLimb(v, 7, b.Pad2Hi)
	return v
}
