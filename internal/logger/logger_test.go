package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestHandlerWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Info("hello", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Fatalf("output %q missing message", out)
	}
	if !strings.Contains(out, "INFO:") {
		t.Fatalf("output %q missing level", out)
	}
}

func TestTraceAndPrimitiveSummary(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	Trace(log, "modexp", "00000001: add w0, w1, w2")
	PrimitiveSummary(log, "modexp", 42, 1337)

	out := buf.String()
	if !strings.Contains(out, "add w0, w1, w2") {
		t.Fatalf("trace line missing from output: %q", out)
	}
	if !strings.Contains(out, "primitive complete") || !strings.Contains(out, "42") || !strings.Contains(out, "1337") {
		t.Fatalf("summary line missing expected fields: %q", out)
	}
}

func TestSetVerbose(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, false)
	h.SetVerbose(true)
	if !h.verbose {
		t.Fatalf("SetVerbose(true) did not take effect")
	}
}
