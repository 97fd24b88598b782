// Package driver implements the Primitive Driver: it prepares a DMEM
// snapshot with the calling-convention pointer words, builds an
// engine.Machine bounded to a primitive's start/stop PC, runs it to
// completion, and reads the result back out of DMEM. Grounded on
// sim_rsa_tests.py, whose module-global scratch (DMEM snapshot, counters,
// decode context) this package turns into an explicit Driver value, per
// spec.md §9's "global mutable driver state" flag.
package driver

// Fixed DMEM slot indices for the calling-convention pointer words (bit
// exact, spec.md §6). Each slot holds one packed pointer word: eight
// 32-bit fields {ptr_mod, ptr_dinv, ptr_rr, ptr_a, ptr_b, ptr_c, bn_words,
// bn_words-1}.
const (
	LocInPtrs  = 0
	LocSqrPtrs = 1
	LocMulPtrs = 2
	LocOutPtrs = 3
)

// Fixed DMEM payload offsets, in 256-bit words (spec.md §6). A program
// assembled with byte addressing embeds these multiplied by 32; Config
// tells the pointer packer (PackPtrWord/UnpackPtrWord) which convention
// to honor at the calling-convention boundary. LoadFullBnVal/GetFullBnVal
// always take word offsets, since DMEM itself is always word-indexed
// (internal/state.DMEM).
const (
	OffsetMod      = 4
	OffsetDinv     = 20
	OffsetBlinding = 21
	OffsetRR       = 22
	OffsetIn       = 38
	OffsetExp      = 54
	OffsetOut      = 71
	OffsetBin      = 87
	OffsetBout     = 103
)

// Scratch DMEM words used only by this package's own bn_words=1
// micro-programs: small constants the Hensel-lifting and RR-doubling
// routines need resident in DMEM (real microcode loads constants from a
// data section the same way). These are internal implementation detail,
// not part of the bit-exact calling convention in spec.md §6.
const (
	scratchConstOne = 200
	scratchConstTwo = 201
	// operand B for a two-operand montmul call; OffsetIn (spec's anchor)
	// holds operand A.
	offsetInB = OffsetIn + 1
)

// DefaultDMEMWords is the word depth the Driver allocates DMEM with:
// spec.md §3 calls for 128 words in the core, 1024 for program-carrying
// use; this package only ever holds scalar operands and small constants
// so 256 words comfortably covers every offset above plus headroom.
const DefaultDMEMWords = 256
