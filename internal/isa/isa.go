// Package isa defines the contract between the external decoder and the
// Execution Engine: a decoded instruction knows how to execute itself
// against a *state.State and how to render itself for a trace line. The
// engine never parses text or bytes — it only walks a slice of
// already-decoded Instruction values (see internal/engine).
//
// This package is not an assembler. The concrete Instr type and its
// constructors exist so tests and the Primitive Driver's fixed
// micro-programs (internal/driver) have something concrete to build
// instruction streams from; there is no text or binary decode path here.
package isa

import "github.com/rcornwell/bignumsim/internal/state"

// Instruction is the contract an externally-decoded instruction record
// must satisfy.
type Instruction interface {
	// Execute performs the instruction's effect on s and returns its
	// cycle cost. PC is read and possibly written by Execute itself
	// (branches, calls, loop setup); the engine advances PC afterward
	// only if Execute left it unchanged.
	Execute(s *state.State) (cycles int, err error)

	// Disassemble renders the instruction at address addr as a single
	// trace line, and reports whether the record itself is malformed
	// (in which case the engine raises DecodeError instead of calling
	// Execute).
	Disassemble(addr uint32) (text string, malformed bool)
}

// Context carries the symbol tables a decoded program is shipped with:
// function entry points and label addresses. The engine and driver treat
// both as opaque lookup tables; nothing here re-derives them from text.
type Context struct {
	Functions map[string]uint32
	Labels    map[string]uint32
}

// NewContext returns an empty Context with initialized maps.
func NewContext() Context {
	return Context{
		Functions: make(map[string]uint32),
		Labels:    make(map[string]uint32),
	}
}
