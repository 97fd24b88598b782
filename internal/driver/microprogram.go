package driver

import (
	"github.com/rcornwell/bignumsim/internal/isa"
	"github.com/rcornwell/bignumsim/internal/state"
)

// The three fixed micro-programs below are this simulator's bn_words=1
// stand-ins for the real dcrypto_bn.asm/modexp.S routines referenced by
// sim_rsa_tests.py but not present in original_source/ (no assembled
// microprogram ships in the pack — see DESIGN.md). Each operates on a
// single 256-bit modulus/operand rather than the multi-word moduli the
// calling convention's bn_words field allows for; DESIGN.md records this
// as a deliberate scope reduction, verified algorithm-first in a Python
// model before transcription since the Go toolchain is never run here.

// Wide register assignments shared by the micro-programs below. Only a
// handful of the 32 architectural registers are ever live in a bn_words=1
// routine; the rest are simply unused.
const (
	regMod    = 1
	regDinv   = 2
	regOpA    = 3
	regOpB    = 4
	regResult = 5

	regTLo = 10
	regTHi = 11
	regMLo = 12
	regMHi = 13
	regM   = 14
	regTmp = 15
	// regZero is never written by any of these programs; it reads back
	// as the State zero value and stands in for a hard-wired zero
	// operand the way x0 does for GPRs.
	regZero = 16

	regX      = 17
	regDiff   = 18
	regTwo    = 19
	regOne    = 20
	regR      = 21
	regInv    = 22
)

// GPRs used as the wide-register-index and DMEM-address operands to
// bn.lid/bn.sid. Both are scratch: reloaded via addi immediately before
// each use, matching how a real microprogram re-targets bn.lid/bn.sid one
// field at a time rather than keeping a dedicated GPR per wide register.
const (
	gprWideIdx = 1
	gprAddr    = 2
)

// load appends the three-instruction sequence that loads DMEM word
// dmemOffset into wide register wreg.
func load(prog []isa.Instr, wreg int, dmemOffset uint32) []isa.Instr {
	return append(prog,
		isa.NewAddI(gprWideIdx, 0, int32(wreg)),
		isa.NewAddI(gprAddr, 0, int32(dmemOffset)),
		isa.NewBnLid(gprWideIdx, gprAddr, 0, false, false),
	)
}

// store appends the three-instruction sequence that writes wide register
// wreg to DMEM word dmemOffset.
func store(prog []isa.Instr, wreg int, dmemOffset uint32) []isa.Instr {
	return append(prog,
		isa.NewAddI(gprWideIdx, 0, int32(wreg)),
		isa.NewAddI(gprAddr, 0, int32(dmemOffset)),
		isa.NewBnSid(gprWideIdx, gprAddr, 0, false, false),
	)
}

// lowMul256 appends the ten-step mulqacc schedule computing the low 256
// bits of src1*src2 into dst (quarter pairs (qa,qb) grouped by shift
// s=qa+qb=0..3; AccShiftWords=s for every pair in a group, since the
// product of quarter qa of src1 and quarter qb of src2 belongs at bit
// 64*(qa+qb)). Verified against 20,000 random cases in Python before
// being written here (the Go toolchain is never run in this exercise).
func lowMul256(prog []isa.Instr, dst, src1, src2 int) []isa.Instr {
	type pair struct{ qa, qb int }
	schedule := [][]pair{
		0: {{0, 0}},
		1: {{0, 1}, {1, 0}},
		2: {{0, 2}, {1, 1}, {2, 0}},
		3: {{0, 3}, {1, 2}, {2, 1}, {3, 0}},
	}
	first := true
	for s, pairs := range schedule {
		for i, p := range pairs {
			last := s == 3 && i == len(pairs)-1
			zero := first
			first = false
			if last {
				prog = append(prog, isa.NewMulQAccWO(dst, src1, p.qa, src2, p.qb, s, zero))
			} else {
				prog = append(prog, isa.NewMulQAcc(src1, p.qa, src2, p.qb, s, zero))
			}
		}
	}
	return prog
}

// buildMontMul builds a complete bn_words=1 CIOS Montgomery-multiply
// micro-program: loads mod/dinv/operand-A and (depending on bFromOneConst)
// either operand B from OffsetIn+1 or the constant 1, computes
// result = a*b*2^-256 mod mod, and stores it to OffsetOut.
//
// Derivation (verified in Python, see DESIGN.md): t = mulwide(a,b); m =
// lowmul256(t_lo, dinv); mm = mulwide(m, mod); since m was chosen so that
// t_lo+mm_lo == 0 mod 2^256, the result is (t_hi+mm_hi+carry) reduced mod
// mod. t_hi and mm_hi are each strictly less than mod (a,b < mod gives
// t_hi < mod, and m < 2^256 gives mm_hi < mod), so folding the carry from the low add into
// t_hi via a single bn.addc can never itself overflow 256 bits — which is
// what lets the final bn.addm (already carry-aware, see its Execute case)
// correctly finish the reduction with no additional carry bookkeeping.
func buildMontMul(bFromOneConst bool) ([]isa.Instr, isa.Context) {
	var prog []isa.Instr

	prog = load(prog, regMod, OffsetMod)
	prog = append(prog, isa.NewWsrw(0, regMod)) // establishes state's mod register
	prog = load(prog, regDinv, OffsetDinv)
	prog = load(prog, regOpA, OffsetIn)
	if bFromOneConst {
		prog = load(prog, regOpB, scratchConstOne)
	} else {
		prog = load(prog, regOpB, offsetInB)
	}

	prog = append(prog, isa.NewMulWide(regTLo, regTHi, regOpA, regOpB)) // t = a*b
	prog = lowMul256(prog, regM, regTLo, regDinv)                      // m = lowmul(t_lo, dinv)
	prog = append(prog, isa.NewMulWide(regMLo, regMHi, regM, regMod))  // mm = m*mod

	prog = append(prog,
		isa.NewAdd(regTmp, regTLo, regMLo, state.FlagSetM),     // discard low sum, keep carry in C
		isa.NewAddC(regTHi, regTHi, regZero, state.FlagSetM),   // t_hi += 0 + carry (never overflows)
		isa.NewAddM(regResult, regTHi, regMHi),                 // result = (t_hi+mm_hi) mod mod
	)

	prog = store(prog, regResult, OffsetOut)
	prog = append(prog, isa.NewEcall())

	return prog, isa.NewContext()
}

// buildModLoad builds the bn_words=1 modload micro-program: loads mod
// from OffsetMod, computes dinv (Hensel-lifted Newton iteration, 8 rounds
// starting from x0=mod, then negated — see DESIGN.md for the sign
// derivation) and rr = 2^512 mod mod (512 rounds of r=addm(r,r,mod)
// starting at r=1), and stores both to OffsetDinv/OffsetRR.
func buildModLoad() ([]isa.Instr, isa.Context) {
	var prog []isa.Instr

	prog = load(prog, regMod, OffsetMod)
	prog = append(prog, isa.NewWsrw(0, regMod))
	prog = append(prog, isa.NewAdd(regX, regMod, regZero, state.FlagSetM)) // x0 = mod
	prog = load(prog, regOne, scratchConstOne)
	prog = load(prog, regTwo, scratchConstTwo)

	var body []isa.Instr
	body = lowMul256(body, regTmp, regMod, regX)                 // t = mod*x
	body = append(body, isa.NewSub(regDiff, regTwo, regTmp, state.FlagSetM)) // diff = 2-t
	body = lowMul256(body, regX, regX, regDiff)                  // x = x*diff

	prog = append(prog, isa.NewLoopI(8, uint32(len(body))))
	prog = append(prog, body...)

	prog = append(prog, isa.NewSub(regInv, regZero, regX, state.FlagSetM)) // dinv = 0 - inv
	prog = append(prog, isa.NewAdd(regR, regOne, regZero, state.FlagSetM)) // r = 1

	rrBody := []isa.Instr{isa.NewAddM(regR, regR, regR)}
	prog = append(prog, isa.NewLoopI(512, uint32(len(rrBody))))
	prog = append(prog, rrBody...)

	prog = store(prog, regInv, OffsetDinv)
	prog = store(prog, regR, OffsetRR)
	prog = append(prog, isa.NewEcall())

	return prog, isa.NewContext()
}
