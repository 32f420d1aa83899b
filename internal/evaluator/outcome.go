package evaluator

import "github.com/funvibe/nasal/internal/heap"

// Signal is the control-flow state a statement finished in.
type Signal uint8

const (
	SignalNormal Signal = iota
	SignalBreak
	SignalContinue
	SignalReturn
	SignalError
)

var signalNames = [...]string{
	SignalNormal:   "normal",
	SignalBreak:    "break",
	SignalContinue: "continue",
	SignalReturn:   "return",
	SignalError:    "error",
}

func (s Signal) String() string {
	if int(s) < len(signalNames) {
		return signalNames[s]
	}
	return "unknown"
}

// Outcome is the result of executing a statement. Value is set, and owned
// by the receiver, only for SignalReturn; Err only for SignalError.
type Outcome struct {
	Signal Signal
	Value  heap.Ref
	Err    error
}

func normal() Outcome { return Outcome{} }

func failed(err error) Outcome { return Outcome{Signal: SignalError, Err: err} }

func returned(v heap.Ref) Outcome { return Outcome{Signal: SignalReturn, Value: v} }

// Interrupted reports whether execution of sibling statements must stop.
func (o Outcome) Interrupted() bool { return o.Signal != SignalNormal }
