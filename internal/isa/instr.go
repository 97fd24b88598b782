package isa

import (
	"fmt"

	"github.com/rcornwell/bignumsim/internal/simerr"
	"github.com/rcornwell/bignumsim/internal/state"
	"github.com/rcornwell/bignumsim/internal/u256"
)

// Opcode tags the instruction family an Instr represents. Dispatch is a
// single switch in Execute/Disassemble rather than one type per opcode —
// a tagged variant, per the fix to the teacher's polymorphism note, with
// the tag carrying only the fields that family actually uses.
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpAddC
	OpSubC
	OpAddM
	OpSubM
	OpAnd
	OpOr
	OpXor
	OpNot
	OpNotX
	OpRshi
	OpMulQAcc
	OpBnLid
	OpBnSid
	OpAddI
	OpAddGpr
	OpLui
	OpJal
	OpJalr
	OpBeq
	OpBne
	OpRet
	OpLoop
	OpLoopI
	OpEcall
	OpSigIni
	OpSigChk
	OpBm
	OpWsrw
	OpWsrr
	OpMulWide
	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpAdd: "bn.add", OpSub: "bn.sub", OpAddC: "bn.addc", OpSubC: "bn.subc",
	OpAddM: "bn.addm", OpSubM: "bn.subm", OpAnd: "bn.and", OpOr: "bn.or",
	OpXor: "bn.xor", OpNot: "bn.not", OpNotX: "bn.notx", OpRshi: "bn.rshi",
	OpMulQAcc: "bn.mulqacc", OpBnLid: "bn.lid", OpBnSid: "bn.sid",
	OpAddI: "addi", OpAddGpr: "add", OpLui: "lui", OpJal: "jal",
	OpJalr: "jalr", OpBeq: "beq", OpBne: "bne", OpRet: "ret",
	OpLoop: "loop", OpLoopI: "loopi", OpEcall: "ecall", OpSigIni: "sigini",
	OpSigChk: "sigchk", OpBm: "bn.mov", OpWsrw: "bn.wsrw", OpWsrr: "bn.wsrr",
	OpMulWide: "bn.mulw",
}

// Instr is the concrete, tagged-variant Instruction used throughout this
// repository's own tests and the Primitive Driver's micro-programs.
type Instr struct {
	Op        Opcode
	Malformed bool

	// Wide register operands (left at zero when unused by Op).
	Dst, Src1, Src2 int

	// Flag group selection and carry-in usage for wide arithmetic.
	Group    state.FlagSet
	UseCarry bool

	// Optional pre-shift applied to Src2 before combination, used by the
	// wide arithmetic/logical family's shifted-operand addressing mode,
	// and by notx/rshi.
	ShiftAmount int
	ShiftRight  bool

	// Multiply-accumulate operand selection.
	QuarterA, QuarterB int
	AccShiftWords      int
	ZeroAcc            bool
	WriteOut           bool
	ShiftOut           bool
	HalfSel            int

	// bn.lid/bn.sid operands: WideIdxGpr names the GPR holding the wide
	// register index, AddrGpr the GPR holding the DMEM word address.
	WideIdxGpr     uint8
	AddrGpr        uint8
	Offset         int32
	PostIncAddr    bool
	PostIncWideIdx bool

	// GPR-op operands.
	RdGpr, Rs1Gpr, Rs2Gpr uint8
	Imm                   int32

	// Control-flow target, resolved ahead of time by whoever built the
	// program (the driver's fixture builder, or a test).
	Target uint32

	// loop/loopi.
	LoopCountGpr uint8
	LoopCountImm uint32
	BodyLen      uint32

	// bn.wsrw/bn.wsrr: WsrIdx names the wide special register (0 aliases
	// mod); Dst/Src1 name the wide register moved to/from it.
	WsrIdx int

	// bn.mulw: full-width multiply producing both halves of the 512-bit
	// product in one step (Dst gets the low half, DstHi the high half).
	// A composite op layered over the U256 Kernel's schoolbook multiply
	// rather than real hardware's quarter-at-a-time bn.mulqacc — see
	// DESIGN.md for why the driver's Montgomery routines use this instead
	// of hand-composing a mulqacc.so/wo schedule for the high product.
	DstHi int
}

// Execute implements Instruction.
func (ins Instr) Execute(s *state.State) (int, error) {
	if ins.Malformed {
		return 0, simerr.New(simerr.DecodeError, "malformed instruction at pc=%d", s.GetPC())
	}
	switch ins.Op {
	case OpAdd, OpSub, OpAddC, OpSubC, OpAddM, OpSubM:
		return ins.execWideArith(s)
	case OpAnd, OpOr, OpXor:
		return ins.execWideLogic(s)
	case OpNot:
		return ins.execNot(s)
	case OpNotX:
		return ins.execNotX(s)
	case OpRshi:
		return ins.execRshi(s)
	case OpMulQAcc:
		return ins.execMulQAcc(s)
	case OpBnLid:
		return ins.execBnLid(s)
	case OpBnSid:
		return ins.execBnSid(s)
	case OpAddI:
		s.SetGPR(ins.RdGpr, s.GetGPR(ins.Rs1Gpr)+uint32(ins.Imm))
		return 1, nil
	case OpAddGpr:
		s.SetGPR(ins.RdGpr, s.GetGPR(ins.Rs1Gpr)+s.GetGPR(ins.Rs2Gpr))
		return 1, nil
	case OpLui:
		s.SetGPR(ins.RdGpr, uint32(ins.Imm)<<12)
		return 1, nil
	case OpJal:
		if err := s.PushCall(s.GetPC() + 1); err != nil {
			return 0, err
		}
		s.SetGPR(ins.RdGpr, s.GetPC()+1)
		s.SetPC(ins.Target)
		return 1, nil
	case OpJalr:
		target := s.GetGPR(ins.Rs1Gpr)
		if err := s.PushCall(s.GetPC() + 1); err != nil {
			return 0, err
		}
		s.SetGPR(ins.RdGpr, s.GetPC()+1)
		s.SetPC(target)
		return 1, nil
	case OpBeq:
		if s.GetGPR(ins.Rs1Gpr) == s.GetGPR(ins.Rs2Gpr) {
			s.SetPC(ins.Target)
		}
		return 1, nil
	case OpBne:
		if s.GetGPR(ins.Rs1Gpr) != s.GetGPR(ins.Rs2Gpr) {
			s.SetPC(ins.Target)
		}
		return 1, nil
	case OpRet:
		pc, err := s.PopCall()
		if err != nil {
			return 0, err
		}
		s.SetPC(pc)
		return 1, nil
	case OpLoop, OpLoopI:
		count := ins.LoopCountImm
		if ins.Op == OpLoop {
			count = s.GetGPR(ins.LoopCountGpr)
		}
		start := s.GetPC() + 1
		rec := state.LoopRecord{IterCount: count, EndPC: start + ins.BodyLen - 1, StartPC: start}
		if err := s.PushLoop(rec); err != nil {
			return 0, err
		}
		return 1, nil
	case OpEcall:
		return 1, nil
	case OpSigIni, OpSigChk:
		return 1, nil
	case OpBm:
		v, err := s.GetReg(ins.Src1)
		if err != nil {
			return 0, err
		}
		if err := s.SetReg(ins.Dst, v); err != nil {
			return 0, err
		}
		return 1, nil
	case OpWsrw:
		v, err := s.GetReg(ins.Src1)
		if err != nil {
			return 0, err
		}
		if err := s.SetWSR(ins.WsrIdx, v); err != nil {
			return 0, err
		}
		return 1, nil
	case OpWsrr:
		v, err := s.GetWSR(ins.WsrIdx)
		if err != nil {
			return 0, err
		}
		if err := s.SetReg(ins.Dst, v); err != nil {
			return 0, err
		}
		return 1, nil
	case OpMulWide:
		a, err := s.GetReg(ins.Src1)
		if err != nil {
			return 0, err
		}
		b, err := s.GetReg(ins.Src2)
		if err != nil {
			return 0, err
		}
		lo, hi := u256.Mul(a, b)
		if err := s.SetReg(ins.Dst, lo); err != nil {
			return 0, err
		}
		if err := s.SetReg(ins.DstHi, hi); err != nil {
			return 0, err
		}
		return 1, nil
	default:
		return 0, simerr.New(simerr.DecodeError, "unknown opcode %d", ins.Op)
	}
}

func (ins Instr) operand2(s *state.State) (u256.U256, error) {
	v, err := s.GetReg(ins.Src2)
	if err != nil {
		return u256.Zero, err
	}
	if ins.ShiftAmount == 0 {
		return v, nil
	}
	if ins.ShiftRight {
		return u256.Shr(v, uint(ins.ShiftAmount)), nil
	}
	return u256.Shl(v, uint(ins.ShiftAmount)), nil
}

func (ins Instr) execWideArith(s *state.State) (int, error) {
	a, err := s.GetReg(ins.Src1)
	if err != nil {
		return 0, err
	}
	b, err := ins.operand2(s)
	if err != nil {
		return 0, err
	}

	var carryIn uint32
	if ins.UseCarry {
		c, _, _, _ := groupFlagValues(s, ins.Group)
		if c {
			carryIn = 1
		}
	}

	switch ins.Op {
	case OpAdd:
		sum, cout := u256.Add(a, b, 0)
		s.SetCZML(ins.Group, sum, cout)
		return 1, s.SetReg(ins.Dst, sum)
	case OpAddC:
		sum, cout := u256.Add(a, b, carryIn)
		s.SetCZML(ins.Group, sum, cout)
		return 1, s.SetReg(ins.Dst, sum)
	case OpSub:
		diff, bout := u256.Sub(a, b, 0)
		s.SetCZML(ins.Group, diff, bout)
		return 1, s.SetReg(ins.Dst, diff)
	case OpSubC:
		diff, bout := u256.Sub(a, b, carryIn)
		s.SetCZML(ins.Group, diff, bout)
		return 1, s.SetReg(ins.Dst, diff)
	case OpAddM:
		sum, cout := u256.Add(a, b, 0)
		mod := s.GetMod()
		// a+b can carry out of bit 255 when mod itself is close to
		// 2^256 (e.g. doubling a value near the top of the modulus);
		// a 256-bit wrapped comparison alone would miss that, so any
		// carry out forces the subtraction regardless of the wrapped
		// sum's apparent size.
		if cout != 0 || u256.Cmp(sum, mod) >= 0 {
			sum, _ = u256.Sub(sum, mod, 0)
		}
		return 1, s.SetReg(ins.Dst, sum)
	case OpSubM:
		diff, bout := u256.Sub(a, b, 0)
		if bout != 0 {
			diff, _ = u256.Add(diff, s.GetMod(), 0)
		}
		return 1, s.SetReg(ins.Dst, diff)
	}
	return 0, simerr.New(simerr.DecodeError, "unreachable wide-arith opcode %d", ins.Op)
}

func groupFlagValues(s *state.State, g state.FlagSet) (c, m, l, z bool) {
	bin := s.FlagsAsBin(g)
	return bin&1 != 0, bin&2 != 0, bin&4 != 0, bin&8 != 0
}

func (ins Instr) execWideLogic(s *state.State) (int, error) {
	a, err := s.GetReg(ins.Src1)
	if err != nil {
		return 0, err
	}
	b, err := ins.operand2(s)
	if err != nil {
		return 0, err
	}
	var r u256.U256
	switch ins.Op {
	case OpAnd:
		r = u256.And(a, b)
	case OpOr:
		r = u256.Or(a, b)
	case OpXor:
		r = u256.Xor(a, b)
	}
	s.SetMLZ(ins.Group, r)
	return 1, s.SetReg(ins.Dst, r)
}

func (ins Instr) execNot(s *state.State) (int, error) {
	a, err := s.GetReg(ins.Src1)
	if err != nil {
		return 0, err
	}
	r := u256.Not(a)
	s.SetMLZ(ins.Group, r)
	return 1, s.SetReg(ins.Dst, r)
}

func (ins Instr) execNotX(s *state.State) (int, error) {
	a, err := ins.operand2(s) // shifted src2, per the notx naming (not of the shifted operand)
	if err != nil {
		return 0, err
	}
	r := u256.Not(a)
	s.SetMLZ(ins.Group, r)
	return 1, s.SetReg(ins.Dst, r)
}

func (ins Instr) execRshi(s *state.State) (int, error) {
	hi, err := s.GetReg(ins.Src1)
	if err != nil {
		return 0, err
	}
	lo, err := s.GetReg(ins.Src2)
	if err != nil {
		return 0, err
	}
	r := u256.ShrConcat(hi, lo, uint(ins.ShiftAmount))
	s.SetMLZ(ins.Group, r)
	return 1, s.SetReg(ins.Dst, r)
}

func (ins Instr) execMulQAcc(s *state.State) (int, error) {
	a, err := s.GetReg(ins.Src1)
	if err != nil {
		return 0, err
	}
	b, err := s.GetReg(ins.Src2)
	if err != nil {
		return 0, err
	}
	qa, err := u256.Quarter(a, ins.QuarterA)
	if err != nil {
		return 0, err
	}
	qb, err := u256.Quarter(b, ins.QuarterB)
	if err != nil {
		return 0, err
	}

	acc := s.GetAcc()
	if ins.ZeroAcc {
		acc = u256.Zero
	}

	lo, hi := u256.MulQuarters(qa, qb)
	var prod u256.U256
	prod[2*ins.AccShiftWords] = uint32(lo)
	prod[2*ins.AccShiftWords+1] = uint32(lo >> 32)
	if ins.AccShiftWords+1 < u256.Quarters {
		prod[2*(ins.AccShiftWords+1)] = uint32(hi)
		prod[2*(ins.AccShiftWords+1)+1] = uint32(hi >> 32)
	}

	acc, _ = u256.Add(acc, prod, 0)
	s.SetAcc(acc)

	if ins.WriteOut {
		if err := s.SetReg(ins.Dst, acc); err != nil {
			return 0, err
		}
		s.SetAcc(u256.Zero)
	} else if ins.ShiftOut {
		hw, err := u256.GetHalfWord(acc, 0)
		if err != nil {
			return 0, err
		}
		if err := s.SetRegHalfWord(ins.Dst, ins.HalfSel, hw); err != nil {
			return 0, err
		}
		s.SetAcc(u256.ShrConcat(u256.Zero, acc, 128))
	}
	return 1, nil
}

func (ins Instr) resolveWideIdx(s *state.State) int {
	return int(s.GetGPR(ins.WideIdxGpr))
}

func (ins Instr) resolveAddr(s *state.State) int {
	return int(int32(s.GetGPR(ins.AddrGpr)) + ins.Offset)
}

func (ins Instr) execBnLid(s *state.State) (int, error) {
	addr := ins.resolveAddr(s)
	v, err := s.DMEM().Get(addr)
	if err != nil {
		return 0, err
	}
	idx := ins.resolveWideIdx(s)
	if err := s.SetReg(idx, v); err != nil {
		return 0, err
	}
	if ins.PostIncAddr {
		s.SetGPR(ins.AddrGpr, s.GetGPR(ins.AddrGpr)+1)
	}
	if ins.PostIncWideIdx {
		s.SetGPR(ins.WideIdxGpr, s.GetGPR(ins.WideIdxGpr)+1)
	}
	return 2, nil
}

func (ins Instr) execBnSid(s *state.State) (int, error) {
	idx := ins.resolveWideIdx(s)
	v, err := s.GetReg(idx)
	if err != nil {
		return 0, err
	}
	addr := ins.resolveAddr(s)
	if err := s.DMEM().Set(addr, v); err != nil {
		return 0, err
	}
	if ins.PostIncAddr {
		s.SetGPR(ins.AddrGpr, s.GetGPR(ins.AddrGpr)+1)
	}
	if ins.PostIncWideIdx {
		s.SetGPR(ins.WideIdxGpr, s.GetGPR(ins.WideIdxGpr)+1)
	}
	return 2, nil
}

// Disassemble implements Instruction.
func (ins Instr) Disassemble(addr uint32) (string, bool) {
	if ins.Malformed {
		return fmt.Sprintf("%08x: <malformed>", addr), true
	}
	name := opcodeNames[ins.Op]
	switch ins.Op {
	case OpAdd, OpSub, OpAddC, OpSubC, OpAddM, OpSubM, OpAnd, OpOr, OpXor:
		return fmt.Sprintf("%08x: %s w%d, w%d, w%d", addr, name, ins.Dst, ins.Src1, ins.Src2), false
	case OpNot:
		return fmt.Sprintf("%08x: %s w%d, w%d", addr, name, ins.Dst, ins.Src1), false
	case OpNotX:
		return fmt.Sprintf("%08x: %s w%d, w%d >> %d", addr, name, ins.Dst, ins.Src2, ins.ShiftAmount), false
	case OpRshi:
		return fmt.Sprintf("%08x: %s w%d, w%d, w%d >> %d", addr, name, ins.Dst, ins.Src1, ins.Src2, ins.ShiftAmount), false
	case OpMulQAcc:
		return fmt.Sprintf("%08x: %s w%d.%d, w%d.%d << %d", addr, name, ins.Src1, ins.QuarterA, ins.Src2, ins.QuarterB, ins.AccShiftWords*64), false
	case OpBnLid, OpBnSid:
		return fmt.Sprintf("%08x: %s x%d, %d(x%d)", addr, name, ins.WideIdxGpr, ins.Offset, ins.AddrGpr), false
	case OpAddI:
		return fmt.Sprintf("%08x: %s x%d, x%d, %d", addr, name, ins.RdGpr, ins.Rs1Gpr, ins.Imm), false
	case OpAddGpr:
		return fmt.Sprintf("%08x: %s x%d, x%d, x%d", addr, name, ins.RdGpr, ins.Rs1Gpr, ins.Rs2Gpr), false
	case OpLui:
		return fmt.Sprintf("%08x: %s x%d, %d", addr, name, ins.RdGpr, ins.Imm), false
	case OpJal:
		return fmt.Sprintf("%08x: %s x%d, %d", addr, name, ins.RdGpr, ins.Target), false
	case OpJalr:
		return fmt.Sprintf("%08x: %s x%d, x%d", addr, name, ins.RdGpr, ins.Rs1Gpr), false
	case OpBeq, OpBne:
		return fmt.Sprintf("%08x: %s x%d, x%d, %d", addr, name, ins.Rs1Gpr, ins.Rs2Gpr, ins.Target), false
	case OpRet:
		return fmt.Sprintf("%08x: %s", addr, name), false
	case OpLoop:
		return fmt.Sprintf("%08x: %s x%d, %d", addr, name, ins.LoopCountGpr, ins.BodyLen), false
	case OpLoopI:
		return fmt.Sprintf("%08x: %s %d, %d", addr, name, ins.LoopCountImm, ins.BodyLen), false
	case OpBm:
		return fmt.Sprintf("%08x: %s w%d, w%d", addr, name, ins.Dst, ins.Src1), false
	case OpWsrw:
		return fmt.Sprintf("%08x: %s %d, w%d", addr, name, ins.WsrIdx, ins.Src1), false
	case OpWsrr:
		return fmt.Sprintf("%08x: %s w%d, %d", addr, name, ins.Dst, ins.WsrIdx), false
	case OpMulWide:
		return fmt.Sprintf("%08x: %s w%d, w%d, w%d, w%d", addr, name, ins.Dst, ins.DstHi, ins.Src1, ins.Src2), false
	default:
		return fmt.Sprintf("%08x: %s", addr, name), false
	}
}
