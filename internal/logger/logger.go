// Package logger formats the two kinds of record this simulator actually
// emits — the Engine's per-instruction trace line and the Primitive
// Driver's per-primitive completion summary — into single text lines
// written to a configured io.Writer, with an optional mirror to stderr.
// Grounded on the teacher's util/logger slog.Handler wrapper (join
// fields, lock, write, conditionally mirror to stderr), but Handle here
// recognizes this package's own two record shapes by attr key and
// formats each one specifically, rather than generically joining
// whatever attrs a record happens to carry.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Attr keys Trace/PrimitiveSummary attach to the records they emit;
// Handle switches on these to pick a record-specific format.
const (
	attrPrimitive    = "primitive"
	attrInstructions = "instructions"
	attrCycles       = "cycles"
)

// Handler writes one formatted line per record to out, mirroring to
// stderr when verbose is set (or the record is above debug level).
// Primitive-trace and primitive-summary records — the only two shapes
// internal/engine and internal/driver ever log — get their own compact
// formats; anything else falls back to a plain "<time> <LEVEL>: message"
// line.
type Handler struct {
	out     io.Writer
	attrs   []slog.Attr
	mu      *sync.Mutex
	verbose bool
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelDebug
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...), mu: h.mu, verbose: h.verbose}
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	return h
}

func findAttr(r slog.Record, key string) (slog.Value, bool) {
	var v slog.Value
	var found bool
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v, found = a.Value, true
			return false
		}
		return true
	})
	return v, found
}

// formatLine renders r as one of this package's two known record shapes
// (a primitive trace line, or a primitive-complete summary), falling
// back to a plain timestamped message line for anything else (slog's own
// internal records, tests constructing a bare Record, ...).
func formatLine(r slog.Record) string {
	ts := r.Time.Format("2006/01/02 15:04:05")
	primitive, hasPrimitive := findAttr(r, attrPrimitive)
	instructions, hasInstructions := findAttr(r, attrInstructions)
	cycles, hasCycles := findAttr(r, attrCycles)

	switch {
	case hasInstructions && hasCycles && hasPrimitive:
		return fmt.Sprintf("%s %s [%s]: %s (%s instructions, %s cycles)\n",
			ts, r.Level, primitive, r.Message, instructions, cycles)
	case hasPrimitive:
		return fmt.Sprintf("%s %s [%s]: %s\n", ts, r.Level, primitive, r.Message)
	default:
		return fmt.Sprintf("%s %s: %s\n", ts, r.Level, r.Message)
	}
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	line := []byte(formatLine(r))

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(line)
	}
	if h.verbose || r.Level > slog.LevelDebug {
		_, err = os.Stderr.Write(line)
	}
	return err
}

// SetVerbose toggles whether debug-level records are also mirrored to
// stderr.
func (h *Handler) SetVerbose(verbose bool) { h.verbose = verbose }

// NewHandler builds a Handler writing to out. verbose controls whether
// debug-level lines (the Engine's per-instruction trace) also go to
// stderr; primitive-complete summaries are logged at Info and always
// mirrored.
func NewHandler(out io.Writer, verbose bool) *Handler {
	return &Handler{out: out, mu: &sync.Mutex{}, verbose: verbose}
}

// New builds a ready-to-use *slog.Logger over a Handler writing to out.
func New(out io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewHandler(out, verbose))
}

// Trace emits one per-instruction trace line at debug level, tagged with
// the primitive name it ran under. The Engine hands these lines to the
// Primitive Driver verbatim (see internal/engine.Run's trace callback);
// this is the only place they're actually written out.
func Trace(log *slog.Logger, primitive, line string) {
	log.Debug(line, slog.String(attrPrimitive, primitive))
}

// PrimitiveSummary logs a primitive's completion: how many instructions
// and cycles it took to run to completion.
func PrimitiveSummary(log *slog.Logger, primitive string, instCount, cycleCount uint64) {
	log.Info("primitive complete",
		slog.String(attrPrimitive, primitive),
		slog.Uint64(attrInstructions, instCount),
		slog.Uint64(attrCycles, cycleCount),
	)
}
