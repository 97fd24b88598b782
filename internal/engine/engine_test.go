package engine

import (
	"testing"

	"github.com/rcornwell/bignumsim/internal/isa"
	"github.com/rcornwell/bignumsim/internal/simerr"
	"github.com/rcornwell/bignumsim/internal/state"
	"github.com/rcornwell/bignumsim/internal/u256"
)

func instrs(ins ...isa.Instr) []isa.Instruction {
	out := make([]isa.Instruction, len(ins))
	for i, v := range ins {
		out[i] = v
	}
	return out
}

func TestStepHaltsAtStopPC(t *testing.T) {
	prog := instrs(
		isa.NewAddI(1, 0, 1),
		isa.NewAddI(1, 1, 1),
	)
	st := state.New(8)
	m := New(prog, isa.NewContext(), nil, st, 0, 2)

	cont, _, _, err := m.Step()
	if err != nil || !cont {
		t.Fatalf("step 1: cont=%v err=%v", cont, err)
	}
	cont, _, _, err = m.Step()
	if err != nil || cont {
		t.Fatalf("step 2: cont=%v err=%v want false,nil", cont, err)
	}
	if got := st.GetGPR(1); got != 2 {
		t.Fatalf("gpr1 = %d want 2", got)
	}

	cont, trace, cycles, err := m.Step()
	if err != nil || cont || trace != "" || cycles != 0 {
		t.Fatalf("step at stop pc should be a no-op: cont=%v trace=%q cycles=%d err=%v", cont, trace, cycles, err)
	}
}

func TestStepMalformedInstructionErrors(t *testing.T) {
	prog := instrs(isa.NewMalformed())
	st := state.New(8)
	m := New(prog, isa.NewContext(), nil, st, 0, 1)
	_, _, _, err := m.Step()
	if !simerr.Is(err, simerr.DecodeError) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestStepFetchBeyondProgramErrors(t *testing.T) {
	prog := instrs(isa.NewAddI(1, 0, 1))
	st := state.New(8)
	st.SetPC(1) // past the end of a one-instruction program
	m := New(prog, isa.NewContext(), nil, st, 1, 5)
	_, _, _, err := m.Step()
	if !simerr.Is(err, simerr.DecodeError) {
		t.Fatalf("expected DecodeError fetching beyond program end, got %v", err)
	}
}

func TestEcallHaltsUnconditionally(t *testing.T) {
	prog := instrs(isa.NewEcall(), isa.NewAddI(1, 0, 99))
	st := state.New(8)
	m := New(prog, isa.NewContext(), nil, st, 0, 100) // stop pc far away
	cont, _, _, err := m.Step()
	if err != nil {
		t.Fatalf("ecall step: %v", err)
	}
	if cont {
		t.Fatalf("ecall must halt regardless of stop pc")
	}
}

func TestBreakpointThenResume(t *testing.T) {
	prog := instrs(isa.NewAddI(1, 0, 1), isa.NewAddI(1, 1, 1))
	st := state.New(8)
	m := New(prog, isa.NewContext(), map[uint32]bool{0: true}, st, 0, 2)

	_, _, _, err := m.Step()
	if !simerr.Is(err, simerr.Breakpoint) {
		t.Fatalf("expected Breakpoint, got %v", err)
	}
	if st.GetGPR(1) != 0 {
		t.Fatalf("breakpoint must not execute the instruction")
	}

	m.Resume()
	cont, _, _, err := m.Step()
	if err != nil || !cont {
		t.Fatalf("resumed step: cont=%v err=%v", cont, err)
	}
	if st.GetGPR(1) != 1 {
		t.Fatalf("resumed step did not execute: gpr1=%d", st.GetGPR(1))
	}
}

func TestJalRetRoundTrip(t *testing.T) {
	// 0: jal x1, 3      (call the "function" at pc 3)
	// 1: addi x2, x0, 5 (return lands here)
	// 2: ecall          (halt so the caller doesn't fall into the callee)
	// 3: addi x3, x0, 9 (function body)
	// 4: ret
	prog := instrs(
		isa.NewJal(1, 3),
		isa.NewAddI(2, 0, 5),
		isa.NewEcall(),
		isa.NewAddI(3, 0, 9),
		isa.NewRet(),
	)
	st := state.New(8)
	m := New(prog, isa.NewContext(), nil, st, 0, 99)

	instCount, _, err := Run(m, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if instCount != 5 {
		t.Fatalf("instCount = %d want 5 (jal, addi@3, ret, addi@1, ecall)", instCount)
	}
	if st.GetGPR(2) != 5 {
		t.Fatalf("gpr2 = %d want 5 (return landed and executed)", st.GetGPR(2))
	}
	if st.GetGPR(3) != 9 {
		t.Fatalf("gpr3 = %d want 9", st.GetGPR(3))
	}
}

func TestLoopBacksUpUntilExhausted(t *testing.T) {
	// 0: loopi 3, 1     (loop body is just instruction at pc=1)
	// 1: addi x1, x1, 1
	// 2: addi x2, x0, 77  (falls through here after the loop)
	prog := instrs(
		isa.NewLoopI(3, 1),
		isa.NewAddI(1, 1, 1),
		isa.NewAddI(2, 0, 77),
	)
	st := state.New(8)
	m := New(prog, isa.NewContext(), nil, st, 0, 3)

	instCount, _, err := Run(m, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.GetGPR(1) != 3 {
		t.Fatalf("gpr1 = %d want 3 (body ran 3 times)", st.GetGPR(1))
	}
	if st.GetGPR(2) != 77 {
		t.Fatalf("gpr2 = %d want 77 (fell through after loop)", st.GetGPR(2))
	}
	if instCount != 1+3+1 {
		t.Fatalf("instCount = %d want 5 (loopi + 3x body + fallthrough)", instCount)
	}
}

func TestLoopStackOverflowPropagates(t *testing.T) {
	// A run of loopi instructions whose bodies are far beyond the next
	// loopi keeps nesting (each loop's end_pc is never reached before the
	// next loopi pushes another), so by the (depth+1)th the stack overflows.
	var prog []isa.Instr
	for i := 0; i < state.LoopStackDepth+1; i++ {
		prog = append(prog, isa.NewLoopI(1, 100))
	}
	st := state.New(8)
	m := New(instrs(prog...), isa.NewContext(), nil, st, 0, 1000)
	_, _, err := Run(m, nil)
	if !simerr.Is(err, simerr.LoopStackOverflow) {
		t.Fatalf("expected LoopStackOverflow, got %v", err)
	}
}

func TestMontgomeryStyleWideArithThroughEngine(t *testing.T) {
	// A tiny program exercising wide sub/addm through the engine to make
	// sure the register file observes the same results as calling the
	// u256 kernel directly would.
	prog := instrs(
		isa.NewAddM(2, 0, 1),
		isa.NewSub(3, 2, 1, state.FlagSetM),
	)
	st := state.New(8)
	st.SetMod(u256.FromUint64(100))
	st.SetReg(0, u256.FromUint64(60))
	st.SetReg(1, u256.FromUint64(70))
	m := New(prog, isa.NewContext(), nil, st, 0, 2)

	if _, _, err := Run(m, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := st.GetReg(2)
	if got != u256.FromUint64(30) { // (60+70) mod 100
		t.Fatalf("bn.addm result = %x want 30", got)
	}
	got3, _ := st.GetReg(3)
	wantDiff, wantBorrow := u256.Sub(u256.FromUint64(30), u256.FromUint64(70), 0)
	if wantBorrow == 0 {
		t.Fatalf("test setup bug: expected 30-70 to borrow")
	}
	if got3 != wantDiff {
		t.Fatalf("bn.sub result = %x want %x", got3, wantDiff)
	}
}
