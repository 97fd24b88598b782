// Package config parses the simulator's runtime options. It follows the
// teacher's config/configparser style — a hand-rolled line-oriented
// parser over bufio/strings, no third-party flag or config library —
// scaled down to the handful of options this simulator recognizes.
package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Config holds the three recognized runtime options. It is constructed
// explicitly by callers (main, test harnesses) and threaded into the
// Primitive Driver constructor (engine.New takes no Config) — never read from a global,
// continuing this rewrite's fix for the teacher's package-global
// configuration pattern.
type Config struct {
	// EnableTraceDump, when set, has the Driver emit a per-instruction
	// trace line (via internal/logger) for every Step executed.
	EnableTraceDump bool

	// DMEMByteAddressing selects byte-addressed pointer arithmetic at the
	// Primitive Driver's DMEM pointer-packing boundary instead of
	// word-addressed. DMEM itself is always word-addressed; this only
	// changes how the Driver packs word offsets into pointer words (as
	// offset*32 when set).
	DMEMByteAddressing bool

	// PureReferenceKernel is the Go analogue of the reference
	// implementation's OT_DSIM_PURE_PYTHON switch. This rewrite ships a
	// single U256 Kernel, so the flag is a documented no-op: toggling it
	// must not change observable semantics, matching the requirement it
	// was carried over from.
	PureReferenceKernel bool
}

// Parse reads newline-delimited "key" / "key=value" options from r.
// Blank lines and lines starting with '#' are ignored. Recognized boolean
// keys (enable_trace_dump, dmem_byte_addressing, pure_reference_kernel)
// take an optional "=true"/"=false" value and default to true when bare.
func Parse(r io.Reader) (Config, error) {
	var cfg Config
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))
		v := true
		if value != "" {
			switch value {
			case "true", "1", "yes":
				v = true
			case "false", "0", "no":
				v = false
			default:
				return Config{}, fmt.Errorf("config line %d: invalid boolean value %q for %q", lineNumber, value, key)
			}
		}
		switch key {
		case "enable_trace_dump":
			cfg.EnableTraceDump = v
		case "dmem_byte_addressing":
			cfg.DMEMByteAddressing = v
		case "pure_reference_kernel":
			cfg.PureReferenceKernel = v
		default:
			return Config{}, fmt.Errorf("config line %d: unrecognized option %q", lineNumber, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the simulator's default configuration: tracing off,
// word-addressed DMEM pointers, single (non-selectable) kernel.
func Default() Config {
	return Config{}
}
