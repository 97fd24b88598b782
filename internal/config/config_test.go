package config

import (
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("empty input should yield zero-value Config, got %+v", cfg)
	}
}

func TestParseRecognizedOptions(t *testing.T) {
	input := `# comment line

enable_trace_dump
dmem_byte_addressing=true
pure_reference_kernel=false
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Config{EnableTraceDump: true, DMEMByteAddressing: true, PureReferenceKernel: false}
	if cfg != want {
		t.Fatalf("Parse() = %+v, want %+v", cfg, want)
	}
}

func TestParseRejectsUnknownOption(t *testing.T) {
	if _, err := Parse(strings.NewReader("bogus_option=true")); err == nil {
		t.Fatalf("expected error for unrecognized option")
	}
}

func TestParseRejectsInvalidBoolean(t *testing.T) {
	if _, err := Parse(strings.NewReader("enable_trace_dump=maybe")); err == nil {
		t.Fatalf("expected error for invalid boolean value")
	}
}

func TestDefault(t *testing.T) {
	if Default() != (Config{}) {
		t.Fatalf("Default() should be the zero value")
	}
}
