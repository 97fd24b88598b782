package state

import (
	"github.com/rcornwell/bignumsim/internal/simerr"
	"github.com/rcornwell/bignumsim/internal/u256"
)

// DMEM is the coprocessor's data memory: a flat, word-addressed array of
// 256-bit words. The Primitive Driver is responsible for translating
// byte addresses into word indices when a loaded program uses byte
// addressing (see internal/driver); DMEM itself is always word-indexed.
type DMEM struct {
	words []u256.U256
}

// NewDMEM allocates a DMEM with the given depth in 256-bit words.
func NewDMEM(depth int) DMEM {
	if depth < 0 {
		depth = 0
	}
	return DMEM{words: make([]u256.U256, depth)}
}

// Len returns the number of 256-bit words in the memory.
func (d *DMEM) Len() int { return len(d.words) }

func (d *DMEM) check(i int) error {
	if i < 0 || i >= len(d.words) {
		return simerr.New(simerr.IndexRange, "dmem index %d out of range [0,%d)", i, len(d.words))
	}
	return nil
}

// Get reads word i.
func (d *DMEM) Get(i int) (u256.U256, error) {
	if err := d.check(i); err != nil {
		return u256.Zero, err
	}
	return d.words[i], nil
}

// Set writes word i.
func (d *DMEM) Set(i int, v u256.U256) error {
	if err := d.check(i); err != nil {
		return err
	}
	d.words[i] = v
	return nil
}

// Clone returns a deep copy of DMEM, independent of the original. The
// Primitive Driver does not use it; it allocates a fresh State per call.
func (d *DMEM) Clone() DMEM {
	out := make([]u256.U256, len(d.words))
	copy(out, d.words)
	return DMEM{words: out}
}
