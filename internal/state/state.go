// Package state implements the architectural state of a single bignum
// coprocessor core: the wide register file, general-purpose registers,
// flag groups, data memory, accumulator, wide special registers, program
// counter, and the bounded call/loop stacks. It has no notion of
// instructions or decoding — the Execution Engine mutates a State one
// instruction at a time.
//
// A State is owned exclusively by one Machine; nothing here is safe for
// concurrent use, matching the single-threaded, sequential execution
// model the engine assumes (see internal/engine).
package state

import (
	"github.com/rcornwell/bignumsim/internal/simerr"
	"github.com/rcornwell/bignumsim/internal/u256"
)

const (
	// NumRegs is the number of general-purpose wide registers.
	NumRegs = 32
	// NumGPRs is the number of general-purpose registers; GPR 0 is
	// hardwired to zero, matching the teacher's treatment of fixed
	// special-purpose registers by convention rather than by a distinct
	// type.
	NumGPRs = 32
)

// Flag identifies one of the eight independently addressable condition
// flags: {C,M,L,Z} belong to the "M" hardware flag group, {XC,XM,XL,XZ}
// to the "X" group. Which group an instruction treats as "current" is a
// property of the instruction's decode (see internal/isa), not of the
// state itself.
type Flag int

const (
	FlagC Flag = iota
	FlagM
	FlagL
	FlagZ
	FlagXC
	FlagXM
	FlagXL
	FlagXZ
	numFlags
)

// FlagSet names one of the two hardware flag groups.
type FlagSet int

const (
	FlagSetM FlagSet = iota
	FlagSetX
)

func groupFlags(g FlagSet) (c, m, l, z Flag) {
	if g == FlagSetX {
		return FlagXC, FlagXM, FlagXL, FlagXZ
	}
	return FlagC, FlagM, FlagL, FlagZ
}

// WSRCount is the size of the wide special register table. Index 0 is
// always the modulus register; indices 1..WSRCount-1 are reserved for
// entropy/status WSRs real hardware exposes (RND, URND, KEY_S0...) that
// this simulator has no behavioral model for: each reads back as zero
// until written and as the last value written after that, per the
// resolved Open Question in DESIGN.md.
const WSRCount = 8

// State is the full architectural state of one core.
type State struct {
	regs [NumRegs]u256.U256
	mod  u256.U256
	dmp  u256.U256
	rfp  u256.U256
	lc   u256.U256

	gprs [NumGPRs]uint32

	flags [numFlags]bool

	dmem DMEM
	acc  u256.U256
	wsr  [WSRCount]u256.U256

	pc uint32

	callStack CallStack
	loopStack LoopStack
}

// New builds a State with a DMEM of the given depth (in 256-bit words)
// and all other state zeroed.
func New(dmemDepth int) *State {
	return &State{dmem: NewDMEM(dmemDepth)}
}

// ClearRegs resets the wide register file, GPRs, flags, accumulator,
// WSR table and both hardware stacks to zero/empty. DMEM and PC are left
// untouched — this mirrors a register-file reset, not a full machine
// reset.
func (s *State) ClearRegs() {
	s.regs = [NumRegs]u256.U256{}
	s.mod = u256.Zero
	s.dmp = u256.Zero
	s.rfp = u256.Zero
	s.lc = u256.Zero
	s.gprs = [NumGPRs]uint32{}
	s.flags = [numFlags]bool{}
	s.acc = u256.Zero
	s.wsr = [WSRCount]u256.U256{}
	s.callStack = CallStack{}
	s.loopStack = LoopStack{}
}

func checkRegIndex(i int) error {
	if i < 0 || i >= NumRegs {
		return simerr.New(simerr.IndexRange, "register index %d out of range [0,%d)", i, NumRegs)
	}
	return nil
}

// GetReg returns wide register i.
func (s *State) GetReg(i int) (u256.U256, error) {
	if err := checkRegIndex(i); err != nil {
		return u256.Zero, err
	}
	return s.regs[i], nil
}

// SetReg writes wide register i.
func (s *State) SetReg(i int, v u256.U256) error {
	if err := checkRegIndex(i); err != nil {
		return err
	}
	s.regs[i] = v
	return nil
}

// GetRegLimb returns limb li of wide register i.
func (s *State) GetRegLimb(i, li int) (uint32, error) {
	v, err := s.GetReg(i)
	if err != nil {
		return 0, err
	}
	return u256.GetLimb(v, li)
}

// SetRegLimb writes limb li of wide register i.
func (s *State) SetRegLimb(i, li int, x uint32) error {
	v, err := s.GetReg(i)
	if err != nil {
		return err
	}
	v, err = u256.SetLimb(v, li, x)
	if err != nil {
		return err
	}
	return s.SetReg(i, v)
}

// SetRegHalfLimb writes half-limb li of wide register i.
func (s *State) SetRegHalfLimb(i, li int, x uint16) error {
	v, err := s.GetReg(i)
	if err != nil {
		return err
	}
	v, err = u256.SetHalfLimb(v, li, x)
	if err != nil {
		return err
	}
	return s.SetReg(i, v)
}

// SetRegHalfWord writes half-word hi (0=low,1=high) of wide register i.
func (s *State) SetRegHalfWord(i, hi int, x u256.HalfWord) error {
	v, err := s.GetReg(i)
	if err != nil {
		return err
	}
	v, err = u256.SetHalfWord(v, hi, x)
	if err != nil {
		return err
	}
	return s.SetReg(i, v)
}

// GetMod, SetMod access the Montgomery modulus register. It is also
// exposed as WSR index 0.
func (s *State) GetMod() u256.U256    { return s.mod }
func (s *State) SetMod(v u256.U256)   { s.mod = v }
func (s *State) GetDmp() u256.U256    { return s.dmp }
func (s *State) SetDmp(v u256.U256)   { s.dmp = v }
func (s *State) GetRfp() u256.U256    { return s.rfp }
func (s *State) SetRfp(v u256.U256)   { s.rfp = v }
func (s *State) GetLc() u256.U256     { return s.lc }
func (s *State) SetLc(v u256.U256)    { s.lc = v }
func (s *State) GetAcc() u256.U256    { return s.acc }
func (s *State) SetAcc(v u256.U256)   { s.acc = v }

// GetGPR returns GPR i; GPR 0 always reads as zero.
func (s *State) GetGPR(i uint8) uint32 {
	if i == 0 {
		return 0
	}
	return s.gprs[i]
}

// SetGPR writes GPR i; writes to GPR 0 are dropped.
func (s *State) SetGPR(i uint8, v uint32) {
	if i == 0 {
		return
	}
	s.gprs[i] = v
}

// GetFlag reads one of the eight named flags.
func (s *State) GetFlag(f Flag) bool {
	return s.flags[f]
}

// SetFlag writes one of the eight named flags.
func (s *State) SetFlag(f Flag, v bool) {
	s.flags[f] = v
}

// SetCZML interprets (carry, sum) as a 257-bit result of a wide add/sub
// and updates the selected flag group's C, Z, M and L flags: C is the
// carry/borrow out of bit 255, Z is whether sum is all-zero, M is bit 255
// of sum, L is bit 0 of sum.
func (s *State) SetCZML(g FlagSet, sum u256.U256, carry uint32) {
	c, m, l, z := groupFlags(g)
	s.flags[c] = carry != 0
	s.flags[z] = sum.IsZero()
	s.flags[m] = sum.Bit(255) != 0
	s.flags[l] = sum.Bit(0) != 0
}

// SetMLZ updates the selected flag group's M, L and Z flags from result,
// leaving C untouched: the wide logical/shift family (and/or/xor/not,
// notx, rshi) reports no carry out, so C must retain whatever value a
// prior arithmetic op left it at rather than being cleared.
func (s *State) SetMLZ(g FlagSet, result u256.U256) {
	_, m, l, z := groupFlags(g)
	s.flags[z] = result.IsZero()
	s.flags[m] = result.Bit(255) != 0
	s.flags[l] = result.Bit(0) != 0
}

// FlagsAsBin packs the selected group's flags into the low 4 bits of a
// byte: bit0=C, bit1=M, bit2=L, bit3=Z.
func (s *State) FlagsAsBin(g FlagSet) uint8 {
	c, m, l, z := groupFlags(g)
	var b uint8
	if s.flags[c] {
		b |= 1 << 0
	}
	if s.flags[m] {
		b |= 1 << 1
	}
	if s.flags[l] {
		b |= 1 << 2
	}
	if s.flags[z] {
		b |= 1 << 3
	}
	return b
}

// GetPC returns the program counter.
func (s *State) GetPC() uint32 { return s.pc }

// SetPC writes the program counter.
func (s *State) SetPC(pc uint32) { s.pc = pc }

// IncPC advances the program counter by one instruction slot.
func (s *State) IncPC() { s.pc++ }

// DMEM returns the data memory.
func (s *State) DMEM() *DMEM { return &s.dmem }

// PushCall pushes pc onto the bounded call stack (used by jal/call).
func (s *State) PushCall(pc uint32) error { return s.callStack.Push(pc) }

// PopCall pops the call stack (used by ret).
func (s *State) PopCall() (uint32, error) { return s.callStack.Pop() }

// PushLoop pushes a loop record onto the bounded loop stack.
func (s *State) PushLoop(rec LoopRecord) error { return s.loopStack.Push(rec) }

// TopLoop returns the loop record on top of the stack, if any.
func (s *State) TopLoop() (LoopRecord, bool) { return s.loopStack.Top() }

// DecTopLoop decrements the top loop record's iteration count. It
// reports looping=true (and leaves the record on the stack, decremented)
// if another iteration remains, or looping=false after popping the
// record once the count reaches zero.
func (s *State) DecTopLoop() (looping bool, err error) { return s.loopStack.Dec() }

// GetWSR reads wide special register i; index 0 aliases the modulus
// register.
func (s *State) GetWSR(i int) (u256.U256, error) {
	if i == 0 {
		return s.mod, nil
	}
	if i < 0 || i >= WSRCount {
		return u256.Zero, simerr.New(simerr.IndexRange, "wsr index %d out of range [0,%d)", i, WSRCount)
	}
	return s.wsr[i], nil
}

// SetWSR writes wide special register i; index 0 aliases the modulus
// register.
func (s *State) SetWSR(i int, v u256.U256) error {
	if i == 0 {
		s.mod = v
		return nil
	}
	if i < 0 || i >= WSRCount {
		return simerr.New(simerr.IndexRange, "wsr index %d out of range [0,%d)", i, WSRCount)
	}
	s.wsr[i] = v
	return nil
}
