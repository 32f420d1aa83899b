// Package evaluator walks syntax trees and executes them against a heap.
//
// Expressions evaluate to owned heap references: the caller must release
// every Ref it receives. Statements evaluate to an Outcome that carries the
// control-flow signal of the statement.
package evaluator

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/calc"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

// CallFrame is a single entry of the call stack.
type CallFrame struct {
	Name string
}

type Evaluator struct {
	Heap     *heap.Heap
	Calc     *calc.Calculator
	Reporter *diagnostics.Reporter
	Out      io.Writer

	// Global is the outermost scope. Lookups fall back to it when a
	// function's captured chain does not reach it.
	Global heap.Ref

	// CallStack for traces on errors
	CallStack []CallFrame

	log   *slog.Logger
	loops int // loop bodies enclosing the current statement within the current call
	calls int // active user function calls
}

// Option configures an Evaluator.
type Option func(*Evaluator)

func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) { e.Out = w }
}

func WithReporter(r *diagnostics.Reporter) Option {
	return func(e *Evaluator) { e.Reporter = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// New creates an Evaluator with a fresh global scope on h.
func New(h *heap.Heap, opts ...Option) *Evaluator {
	e := &Evaluator{
		Heap: h,
		Calc: calc.New(h),
		Out:  os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Reporter == nil {
		e.Reporter = diagnostics.NewReporter(e.Out, diagnostics.WithColor("never"))
	}
	e.Global = h.PushFrame(heap.Ref{})
	return e
}

// Shutdown drops every global binding and releases the global scope.
// Values kept alive only by reference cycles remain allocated.
func (e *Evaluator) Shutdown() {
	if !e.Global.Valid() {
		return
	}
	e.Heap.ClearFrame(e.Global)
	e.Heap.PopFrame(e.Global)
	e.Global = heap.Ref{}
}

// Run executes a program in the global scope. The first error halts the
// program; it is reported once and returned in the Outcome.
func (e *Evaluator) Run(program *ast.Node) Outcome {
	var out Outcome
	if program != nil && program.Kind == ast.Block {
		out = e.execStatements(program.Children, e.Global)
	} else {
		out = e.Exec(program, e.Global)
	}
	if out.Signal == SignalError {
		e.Reporter.Report(out.Err)
	}
	return out
}

// Eval evaluates an expression node in scope and returns an owned reference.
func (e *Evaluator) Eval(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	if node == nil {
		return heap.Ref{}, fmt.Errorf("evaluator: missing expression node")
	}
	switch node.Kind {
	// Literals
	case ast.NilLit, ast.Null:
		return e.Heap.NewNil(), nil
	case ast.Number:
		return e.evalNumberLiteral(node)
	case ast.String:
		return e.Heap.NewString(node.Text), nil
	case ast.Identifier:
		return e.evalIdentifier(node, scope)
	case ast.Vector:
		return e.evalVectorLiteral(node, scope)
	case ast.Hash:
		return e.evalHashLiteral(node, scope)
	case ast.Function:
		return e.evalFunctionLiteral(node, scope)

	// Call chains
	case ast.Call:
		return e.evalCallChain(node, scope)

	// Operators
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Link,
		ast.Eq, ast.Neq, ast.Lt, ast.Leq, ast.Gt, ast.Geq:
		return e.evalBinary(node, scope)
	case ast.And, ast.Or:
		return e.evalLogical(node, scope)
	case ast.Neg, ast.Not:
		return e.evalUnary(node, scope)
	case ast.Ternary:
		return e.evalTernary(node, scope)

	// Assignment
	case ast.Assign:
		return e.evalAssign(node, scope)
	case ast.AddAssign, ast.SubAssign, ast.MulAssign, ast.DivAssign, ast.LinkAssign:
		return e.evalCompoundAssign(node, scope)
	case ast.MultiAssign:
		return e.evalMultiAssign(node, scope)
	case ast.Multi:
		return e.evalTuple(node, scope)
	}
	return heap.Ref{}, fmt.Errorf("evaluator: %s is not an expression", node.Kind)
}

// Exec executes a statement node in scope.
func (e *Evaluator) Exec(node *ast.Node, scope heap.Ref) Outcome {
	if node == nil {
		return failed(fmt.Errorf("evaluator: missing statement node"))
	}
	switch node.Kind {
	case ast.Block:
		return e.execBlock(node, scope)
	case ast.Definition:
		return e.execDefinition(node, scope)
	case ast.Conditional:
		return e.execConditional(node, scope)
	case ast.While:
		return e.execWhile(node, scope)
	case ast.For:
		return e.execFor(node, scope)
	case ast.ForIndex, ast.ForEach:
		return e.execForIndexed(node, scope)
	case ast.Break:
		return e.execBreak()
	case ast.Continue:
		return e.execContinue()
	case ast.Return:
		return e.execReturn(node, scope)
	}
	// Expression statement
	v, err := e.Eval(node, scope)
	if err != nil {
		return failed(err)
	}
	e.Heap.Release(v)
	return normal()
}

// release drops r when it is a live reference.
func (e *Evaluator) release(r heap.Ref) {
	if r.Valid() {
		e.Heap.Release(r)
	}
}

func (e *Evaluator) releaseAll(refs []heap.Ref) {
	for _, r := range refs {
		e.release(r)
	}
}

// lookup resolves name along the scope chain, then in the global scope.
func (e *Evaluator) lookup(scope heap.Ref, name string) (heap.CellRef, bool) {
	if c, ok := e.Heap.Lookup(scope, name); ok {
		return c, true
	}
	if e.Global.Valid() && !e.Heap.Encloses(e.Global, scope) {
		return e.Heap.Lookup(e.Global, name)
	}
	return heap.CellRef{}, false
}

// PushCall adds a call frame to the stack
func (e *Evaluator) PushCall(name string) {
	e.CallStack = append(e.CallStack, CallFrame{Name: name})
	if e.log != nil {
		e.log.Debug("call", slog.String("function", name), slog.Int("depth", len(e.CallStack)))
	}
}

// PopCall removes the top call frame
func (e *Evaluator) PopCall() {
	if len(e.CallStack) > 0 {
		e.CallStack = e.CallStack[:len(e.CallStack)-1]
	}
}

// withStack attaches the current call stack, innermost first, to a runtime
// error that has no trace yet.
func (e *Evaluator) withStack(err error) error {
	re, ok := diagnostics.As(err)
	if !ok || len(re.Trace) > 0 {
		return err
	}
	for i := len(e.CallStack) - 1; i >= 0; i-- {
		re.AddFrame(e.CallStack[i].Name)
	}
	return err
}
