// Package diagnostics defines the runtime error taxonomy and the reporter
// that counts and prints failures.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a runtime failure.
type Code int

const (
	UndefinedIdentifier Code = iota + 1
	TypeMismatch
	ArityMismatch
	IndexOutOfRange
	InvalidSliceBounds
	NonNumerableCoercion
	IllegalControlFlow
)

var codeNames = map[Code]string{
	UndefinedIdentifier:  "UndefinedIdentifier",
	TypeMismatch:         "TypeMismatch",
	ArityMismatch:        "ArityMismatch",
	IndexOutOfRange:      "IndexOutOfRange",
	InvalidSliceBounds:   "InvalidSliceBounds",
	NonNumerableCoercion: "NonNumerableCoercion",
	IllegalControlFlow:   "IllegalControlFlow",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Sentinels for errors.Is matching.
var (
	ErrUndefinedIdentifier  = errors.New("undefined identifier")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrArityMismatch        = errors.New("arity mismatch")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrInvalidSliceBounds   = errors.New("invalid slice bounds")
	ErrNonNumerableCoercion = errors.New("non-numerable coercion")
	ErrIllegalControlFlow   = errors.New("illegal control flow")
)

var sentinels = map[Code]error{
	UndefinedIdentifier:  ErrUndefinedIdentifier,
	TypeMismatch:         ErrTypeMismatch,
	ArityMismatch:        ErrArityMismatch,
	IndexOutOfRange:      ErrIndexOutOfRange,
	InvalidSliceBounds:   ErrInvalidSliceBounds,
	NonNumerableCoercion: ErrNonNumerableCoercion,
	IllegalControlFlow:   ErrIllegalControlFlow,
}

// Frame is one function call the error propagated through, innermost first.
type Frame struct {
	Function string
}

// Error is a runtime failure raised by the evaluator.
type Error struct {
	Code    Code
	Op      string // operation that failed, e.g. "call", "index", "add"
	Message string
	Trace   []Frame

	reported bool
}

// New builds an Error for op.
func New(code Code, op string, format string, a ...interface{}) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, a...)}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return sentinels[e.Code]
}

// AddFrame records that the error left the function named fn.
func (e *Error) AddFrame(fn string) {
	if fn == "" {
		fn = "<anonymous>"
	}
	e.Trace = append(e.Trace, Frame{Function: fn})
}

// Detail renders the error with its code and call trace.
func (e *Error) Detail() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Code, e.Error())
	for _, f := range e.Trace {
		fmt.Fprintf(&sb, "\n  in %s", f.Function)
	}
	return sb.String()
}

// As extracts the runtime Error from err.
func As(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// CodeOf returns the taxonomy code of err, or 0 when err is not a runtime error.
func CodeOf(err error) Code {
	if re, ok := As(err); ok {
		return re.Code
	}
	return 0
}
