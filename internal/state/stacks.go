package state

import "github.com/rcornwell/bignumsim/internal/simerr"

// CallStackDepth is the maximum number of nested jal/call return
// addresses the hardware stack can hold.
const CallStackDepth = 8

// CallStack is the bounded stack of return program counters pushed by
// jal and popped by ret.
type CallStack struct {
	frames [CallStackDepth]uint32
	n      int
}

// Push pushes a return address.
func (c *CallStack) Push(pc uint32) error {
	if c.n >= CallStackDepth {
		return simerr.New(simerr.CallStackOverflow, "call stack depth %d exceeded", CallStackDepth)
	}
	c.frames[c.n] = pc
	c.n++
	return nil
}

// Pop pops a return address.
func (c *CallStack) Pop() (uint32, error) {
	if c.n == 0 {
		return 0, simerr.New(simerr.CallStackUnderrun, "ret with empty call stack")
	}
	c.n--
	return c.frames[c.n], nil
}

// Depth returns the number of frames currently on the stack.
func (c *CallStack) Depth() int { return c.n }

// LoopStackDepth is the maximum nesting depth of active hardware loops.
const LoopStackDepth = 8

// LoopRecord describes one active loop/loopi: the remaining iteration
// count, the PC of the loop body's last instruction (end_pc) and the PC
// of the loop body's first instruction (start_pc), which execution jumps
// back to while iterations remain.
type LoopRecord struct {
	IterCount uint32
	EndPC     uint32
	StartPC   uint32
}

// LoopStack is the bounded stack of active loop records.
type LoopStack struct {
	frames [LoopStackDepth]LoopRecord
	n      int
}

// Push pushes a new loop record. IterCount of zero is a LoopZero error,
// not an overflow: Push checks the trip count first and rejects a zero
// count without touching the stack.
func (l *LoopStack) Push(rec LoopRecord) error {
	if rec.IterCount == 0 {
		return simerr.New(simerr.LoopZero, "loop with zero iteration count")
	}
	if l.n >= LoopStackDepth {
		return simerr.New(simerr.LoopStackOverflow, "loop stack depth %d exceeded", LoopStackDepth)
	}
	l.frames[l.n] = rec
	l.n++
	return nil
}

// Top returns the innermost active loop record, if any.
func (l *LoopStack) Top() (LoopRecord, bool) {
	if l.n == 0 {
		return LoopRecord{}, false
	}
	return l.frames[l.n-1], true
}

// Dec decrements the innermost loop record's iteration count. If more
// than one iteration remained, it decrements in place and reports
// looping=true. If this was the last iteration, it pops the record and
// reports looping=false.
func (l *LoopStack) Dec() (looping bool, err error) {
	if l.n == 0 {
		return false, simerr.New(simerr.IndexRange, "loop stack empty")
	}
	top := &l.frames[l.n-1]
	if top.IterCount > 1 {
		top.IterCount--
		return true, nil
	}
	l.n--
	return false, nil
}

// Depth returns the number of loop records currently on the stack.
func (l *LoopStack) Depth() int { return l.n }
