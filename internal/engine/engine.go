// Package engine implements the cycle-level Execution Engine: a Machine
// owns a decoded instruction stream (IMEM), a decode Context, a
// breakpoint set, and an Architectural State, and advances one
// instruction at a time via Step().
//
// Mirrors the teacher's cpu.go fetch/execute/dispatch shape (CycleCPU,
// fetch, execute) but replaces its package-global cpuState with an
// explicitly owned, explicitly constructed Machine — the fix to the
// "global mutable state" design flaw this rewrite carries throughout.
package engine

import (
	"github.com/rcornwell/bignumsim/internal/isa"
	"github.com/rcornwell/bignumsim/internal/simerr"
	"github.com/rcornwell/bignumsim/internal/state"
)

// Machine is one independently-owned execution context. Nothing here is
// safe for concurrent use; a Machine is created, stepped to completion,
// and discarded by its owner (typically the Primitive Driver).
type Machine struct {
	program []isa.Instruction
	ctx     isa.Context
	breaks  map[uint32]bool
	state   *state.State

	startPC uint32
	stopPC  uint32

	suppressBreakpoint bool
}

// New builds a Machine over program, starting execution at startPC and
// halting once PC reaches stopPC. st is taken by reference and mutated
// in place by Step.
func New(program []isa.Instruction, ctx isa.Context, breakpoints map[uint32]bool, st *state.State, startPC, stopPC uint32) *Machine {
	if breakpoints == nil {
		breakpoints = map[uint32]bool{}
	}
	st.SetPC(startPC)
	return &Machine{
		program: program,
		ctx:     ctx,
		breaks:  breakpoints,
		state:   st,
		startPC: startPC,
		stopPC:  stopPC,
	}
}

// State returns the Machine's Architectural State.
func (m *Machine) State() *state.State { return m.state }

// Context returns the decode context (functions/labels) the program was
// shipped with.
func (m *Machine) Context() isa.Context { return m.ctx }

// Resume suppresses the breakpoint check for exactly the next Step call,
// letting a caller that has inspected state at a breakpoint continue
// execution past it.
func (m *Machine) Resume() { m.suppressBreakpoint = true }

func (m *Machine) fetch(pc uint32) (isa.Instruction, error) {
	if pc >= uint32(len(m.program)) {
		return nil, simerr.New(simerr.DecodeError, "pc %d beyond end of program (len=%d)", pc, len(m.program))
	}
	ins := m.program[pc]
	if ins == nil {
		return nil, simerr.New(simerr.DecodeError, "no instruction decoded at pc %d", pc)
	}
	return ins, nil
}

// Step executes exactly one instruction, or recognizes a halt/breakpoint
// condition without executing anything. It returns whether execution
// should continue, the disassembled trace line for whatever ran (empty
// if nothing did), and the cycle cost of this step.
func (m *Machine) Step() (cont bool, trace string, cycles int, err error) {
	pc := m.state.GetPC()
	if pc == m.stopPC {
		return false, "", 0, nil
	}

	if m.breaks[pc] && !m.suppressBreakpoint {
		return true, "", 0, simerr.New(simerr.Breakpoint, "breakpoint at pc %d", pc)
	}
	m.suppressBreakpoint = false

	ins, err := m.fetch(pc)
	if err != nil {
		return false, "", 0, err
	}

	text, malformed := ins.Disassemble(pc)
	if malformed {
		return false, text, 0, simerr.New(simerr.DecodeError, "malformed instruction at pc %d", pc)
	}

	loopRec, hasLoop := m.state.TopLoop()
	isLoopEnd := hasLoop && pc == loopRec.EndPC

	cycles, err = ins.Execute(m.state)
	if err != nil {
		return false, text, 0, err
	}

	isTerminal := isTerminalOp(ins)

	if m.state.GetPC() == pc {
		m.state.IncPC()
	}

	if isLoopEnd && !isTerminal {
		looping, lerr := m.state.DecTopLoop()
		if lerr != nil {
			return false, text, cycles, lerr
		}
		if looping {
			rec, _ := m.state.TopLoop()
			m.state.SetPC(rec.StartPC)
		} else {
			m.state.SetPC(loopRec.EndPC + 1)
		}
	}

	if isEcall(ins) {
		return false, text, cycles, nil
	}

	cont = m.state.GetPC() != m.stopPC
	return cont, text, cycles, nil
}

// isEcall reports whether ins is the halt instruction: ecall stops the
// Machine unconditionally, independent of the stop PC.
func isEcall(ins isa.Instruction) bool {
	i, ok := ins.(isa.Instr)
	return ok && i.Op == isa.OpEcall
}

// isTerminalOp reports whether ins is a ret or ecall: per the tie-break
// documented alongside the loop stack, an explicit return or halt at a
// loop's end_pc wins over the loop-back decision.
func isTerminalOp(ins isa.Instruction) bool {
	i, ok := ins.(isa.Instr)
	if !ok {
		return false
	}
	return i.Op == isa.OpRet || i.Op == isa.OpEcall
}

// Run steps the Machine to completion (stop PC, malformed fetch, or a
// propagated error), calling trace for every executed instruction's
// trace line when trace is non-nil. It stops and returns the first
// Breakpoint error encountered without resuming past it — the caller
// decides whether to call Resume and continue.
func Run(m *Machine, trace func(line string)) (instCount, cycleCount uint64, err error) {
	for {
		cont, line, cycles, stepErr := m.Step()
		if line != "" && trace != nil {
			trace(line)
		}
		if stepErr != nil {
			if simerr.Is(stepErr, simerr.Breakpoint) {
				return instCount, cycleCount, stepErr
			}
			return instCount, cycleCount, stepErr
		}
		if cycles > 0 {
			instCount++
			cycleCount += uint64(cycles)
		}
		if !cont {
			return instCount, cycleCount, nil
		}
	}
}
