package diagnostics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(ArityMismatch, "call", "too many arguments"))
	if !errors.Is(err, ErrArityMismatch) {
		t.Errorf("errors.Is failed for %v", err)
	}
	if errors.Is(err, ErrTypeMismatch) {
		t.Errorf("matched the wrong sentinel")
	}
	if got := CodeOf(err); got != ArityMismatch {
		t.Errorf("CodeOf = %v", got)
	}
	if got := CodeOf(errors.New("plain")); got != 0 {
		t.Errorf("CodeOf(plain) = %v", got)
	}
}

func TestDetailIncludesTrace(t *testing.T) {
	err := New(UndefinedIdentifier, "lookup", "cannot find value named 'x'")
	err.AddFrame("inner")
	err.AddFrame("")
	want := "UndefinedIdentifier: lookup: cannot find value named 'x'\n  in inner\n  in <anonymous>"
	if got := err.Detail(); got != want {
		t.Errorf("Detail =\n%s\nwant\n%s", got, want)
	}
}

func TestReporterCountsOnce(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, WithColor("never"))
	err := New(TypeMismatch, "index", "expected a vector, hash or string")
	r.Report(err)
	r.Report(err)
	r.Report(errors.New("io failure"))
	if r.Count() != 2 {
		t.Fatalf("Count = %d, want 2", r.Count())
	}
	if !Reported(err) {
		t.Errorf("error not marked reported")
	}
	r.PrintSummary()
	out := buf.String()
	if strings.Count(out, "TypeMismatch") != 1 {
		t.Errorf("runtime error printed more than once:\n%s", out)
	}
	if !strings.HasSuffix(out, "[runtime] 2 error(s).\n") {
		t.Errorf("missing summary:\n%s", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("colour codes written with colour disabled")
	}
}

func TestReporterColorAndCap(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, WithColor("always"), WithMaxPrinted(1))
	r.Report(New(IndexOutOfRange, "index", "index 5 out of range"))
	r.Report(New(IndexOutOfRange, "index", "index 6 out of range"))
	if r.Count() != 2 {
		t.Errorf("Count = %d", r.Count())
	}
	out := buf.String()
	if strings.Contains(out, "index 6") {
		t.Errorf("printed past the cap:\n%s", out)
	}
	if !strings.Contains(out, ansiRed) {
		t.Errorf("expected colour codes:\n%s", out)
	}
}

func TestAutoColorOnBuffer(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, WithColor("auto"))
	if r.color {
		t.Errorf("a buffer is not a terminal")
	}
	if IsTerminal(&buf) {
		t.Errorf("IsTerminal(buffer) = true")
	}
}
