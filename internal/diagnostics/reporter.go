package diagnostics

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiRed   = "\033[31m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// Reporter accumulates runtime failures for one program run and prints a
// line per failure followed by a summary.
type Reporter struct {
	out     io.Writer
	color   bool
	max     int
	count   int
	printed int
	log     *slog.Logger
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithColor selects coloured output: "always", "never" or "auto" (colour
// only when out is a terminal).
func WithColor(mode string) ReporterOption {
	return func(r *Reporter) {
		switch mode {
		case "always":
			r.color = true
		case "never":
			r.color = false
		default:
			r.color = IsTerminal(r.out)
		}
	}
}

// WithMaxPrinted caps the number of failures printed; counting continues. Zero means no cap.
func WithMaxPrinted(n int) ReporterOption {
	return func(r *Reporter) { r.max = n }
}

// WithLogger mirrors every report to l at error level.
func WithLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) { r.log = l }
}

func NewReporter(out io.Writer, opts ...ReporterOption) *Reporter {
	if out == nil {
		out = io.Discard
	}
	r := &Reporter{out: out}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report records err. A runtime Error that was already reported at an inner
// boundary is not counted twice.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	re, isRuntime := As(err)
	if isRuntime {
		if re.reported {
			return
		}
		re.reported = true
	}
	r.count++
	if r.log != nil {
		attrs := []any{slog.String("error", err.Error())}
		if isRuntime {
			attrs = append(attrs, slog.String("code", re.Code.String()))
		}
		r.log.Error("runtime failure", attrs...)
	}
	if r.max > 0 && r.printed >= r.max {
		return
	}
	r.printed++
	msg := err.Error()
	if isRuntime {
		msg = re.Detail()
	}
	fmt.Fprintf(r.out, "%s %s\n", r.paint(ansiRed, "[runtime]"), msg)
}

// Reported reports whether err has already been counted.
func Reported(err error) bool {
	re, ok := As(err)
	return ok && re.reported
}

// Count is the number of failures recorded so far.
func (r *Reporter) Count() int {
	return r.count
}

// Summary returns the closing line for a run.
func (r *Reporter) Summary() string {
	return fmt.Sprintf("%d error(s).", r.count)
}

// PrintSummary writes Summary when at least one failure was recorded.
func (r *Reporter) PrintSummary() {
	if r.count == 0 {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", r.paint(ansiBold, "[runtime]"), r.Summary())
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}
