package isa

import "github.com/rcornwell/bignumsim/internal/state"

// Constructors below build Instr values for the engine's own tests and
// the Primitive Driver's fixed micro-programs. They are a small,
// untextual fixture aid, not a decoder: callers supply already-resolved
// register/GPR indices and branch targets.

func NewAdd(dst, src1, src2 int, g state.FlagSet) Instr {
	return Instr{Op: OpAdd, Dst: dst, Src1: src1, Src2: src2, Group: g}
}

func NewSub(dst, src1, src2 int, g state.FlagSet) Instr {
	return Instr{Op: OpSub, Dst: dst, Src1: src1, Src2: src2, Group: g}
}

func NewAddC(dst, src1, src2 int, g state.FlagSet) Instr {
	return Instr{Op: OpAddC, Dst: dst, Src1: src1, Src2: src2, Group: g, UseCarry: true}
}

func NewSubC(dst, src1, src2 int, g state.FlagSet) Instr {
	return Instr{Op: OpSubC, Dst: dst, Src1: src1, Src2: src2, Group: g, UseCarry: true}
}

func NewAddM(dst, src1, src2 int) Instr {
	return Instr{Op: OpAddM, Dst: dst, Src1: src1, Src2: src2}
}

func NewSubM(dst, src1, src2 int) Instr {
	return Instr{Op: OpSubM, Dst: dst, Src1: src1, Src2: src2}
}

func NewAnd(dst, src1, src2 int, g state.FlagSet) Instr {
	return Instr{Op: OpAnd, Dst: dst, Src1: src1, Src2: src2, Group: g}
}

func NewOr(dst, src1, src2 int, g state.FlagSet) Instr {
	return Instr{Op: OpOr, Dst: dst, Src1: src1, Src2: src2, Group: g}
}

func NewXor(dst, src1, src2 int, g state.FlagSet) Instr {
	return Instr{Op: OpXor, Dst: dst, Src1: src1, Src2: src2, Group: g}
}

func NewNot(dst, src1 int, g state.FlagSet) Instr {
	return Instr{Op: OpNot, Dst: dst, Src1: src1, Group: g}
}

func NewNotX(dst, src2, shiftAmount int, shiftRight bool, g state.FlagSet) Instr {
	return Instr{Op: OpNotX, Dst: dst, Src2: src2, ShiftAmount: shiftAmount, ShiftRight: shiftRight, Group: g}
}

func NewRshi(dst, hi, lo, shiftAmount int) Instr {
	return Instr{Op: OpRshi, Dst: dst, Src1: hi, Src2: lo, ShiftAmount: shiftAmount}
}

// NewMulQAcc builds a plain multiply-accumulate step: multiplies quarter
// qa of src1 by quarter qb of src2, shifts the 128-bit product left by
// shiftWords*64 bits, and adds it into ACC.
func NewMulQAcc(src1, qa, src2, qb, shiftWords int, zeroAcc bool) Instr {
	return Instr{Op: OpMulQAcc, Src1: src1, QuarterA: qa, Src2: src2, QuarterB: qb, AccShiftWords: shiftWords, ZeroAcc: zeroAcc}
}

// NewMulQAccWO is a multiply-accumulate step that, after accumulating,
// writes the full ACC out to dst and clears ACC (the .wo variant).
func NewMulQAccWO(dst, src1, qa, src2, qb, shiftWords int, zeroAcc bool) Instr {
	return Instr{Op: OpMulQAcc, Dst: dst, Src1: src1, QuarterA: qa, Src2: src2, QuarterB: qb, AccShiftWords: shiftWords, ZeroAcc: zeroAcc, WriteOut: true}
}

// NewMulQAccSO is a multiply-accumulate step that, after accumulating,
// writes the low half-word of ACC to half halfSel of dst and shifts ACC
// right by 128 bits (the .so variant).
func NewMulQAccSO(dst, halfSel, src1, qa, src2, qb, shiftWords int, zeroAcc bool) Instr {
	return Instr{Op: OpMulQAcc, Dst: dst, HalfSel: halfSel, Src1: src1, QuarterA: qa, Src2: src2, QuarterB: qb, AccShiftWords: shiftWords, ZeroAcc: zeroAcc, ShiftOut: true}
}

func NewBnLid(wideIdxGpr, addrGpr uint8, offset int32, postIncAddr, postIncWideIdx bool) Instr {
	return Instr{Op: OpBnLid, WideIdxGpr: wideIdxGpr, AddrGpr: addrGpr, Offset: offset, PostIncAddr: postIncAddr, PostIncWideIdx: postIncWideIdx}
}

func NewBnSid(wideIdxGpr, addrGpr uint8, offset int32, postIncAddr, postIncWideIdx bool) Instr {
	return Instr{Op: OpBnSid, WideIdxGpr: wideIdxGpr, AddrGpr: addrGpr, Offset: offset, PostIncAddr: postIncAddr, PostIncWideIdx: postIncWideIdx}
}

func NewAddI(rd, rs1 uint8, imm int32) Instr {
	return Instr{Op: OpAddI, RdGpr: rd, Rs1Gpr: rs1, Imm: imm}
}

func NewAddGpr(rd, rs1, rs2 uint8) Instr {
	return Instr{Op: OpAddGpr, RdGpr: rd, Rs1Gpr: rs1, Rs2Gpr: rs2}
}

func NewLui(rd uint8, imm int32) Instr {
	return Instr{Op: OpLui, RdGpr: rd, Imm: imm}
}

func NewJal(rd uint8, target uint32) Instr {
	return Instr{Op: OpJal, RdGpr: rd, Target: target}
}

func NewJalr(rd, rs1 uint8) Instr {
	return Instr{Op: OpJalr, RdGpr: rd, Rs1Gpr: rs1}
}

func NewBeq(rs1, rs2 uint8, target uint32) Instr {
	return Instr{Op: OpBeq, Rs1Gpr: rs1, Rs2Gpr: rs2, Target: target}
}

func NewBne(rs1, rs2 uint8, target uint32) Instr {
	return Instr{Op: OpBne, Rs1Gpr: rs1, Rs2Gpr: rs2, Target: target}
}

func NewRet() Instr {
	return Instr{Op: OpRet}
}

// NewLoop pushes a loop record whose iteration count comes from GPR
// countGpr, with a body of bodyLen instructions starting just after the
// loop instruction itself.
func NewLoop(countGpr uint8, bodyLen uint32) Instr {
	return Instr{Op: OpLoop, LoopCountGpr: countGpr, BodyLen: bodyLen}
}

// NewLoopI is NewLoop with an immediate iteration count.
func NewLoopI(count, bodyLen uint32) Instr {
	return Instr{Op: OpLoopI, LoopCountImm: count, BodyLen: bodyLen}
}

func NewEcall() Instr {
	return Instr{Op: OpEcall}
}

func NewSigIni() Instr {
	return Instr{Op: OpSigIni}
}

func NewSigChk() Instr {
	return Instr{Op: OpSigChk}
}

func NewBm(dst, src1 int) Instr {
	return Instr{Op: OpBm, Dst: dst, Src1: src1}
}

// NewWsrw moves wide register src1 into wide special register wsrIdx
// (index 0 aliases the Montgomery modulus).
func NewWsrw(wsrIdx, src1 int) Instr {
	return Instr{Op: OpWsrw, WsrIdx: wsrIdx, Src1: src1}
}

// NewWsrr moves wide special register wsrIdx into wide register dst.
func NewWsrr(dst, wsrIdx int) Instr {
	return Instr{Op: OpWsrr, Dst: dst, WsrIdx: wsrIdx}
}

// NewMulWide computes the full 512-bit product of src1 and src2,
// writing the low half to dstLo and the high half to dstHi.
func NewMulWide(dstLo, dstHi, src1, src2 int) Instr {
	return Instr{Op: OpMulWide, Dst: dstLo, DstHi: dstHi, Src1: src1, Src2: src2}
}

// NewMalformed builds a record the engine must reject with DecodeError
// rather than execute, used to exercise the engine's decode-failure path.
func NewMalformed() Instr {
	return Instr{Malformed: true}
}
