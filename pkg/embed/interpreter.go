// Package nasal embeds the interpreter in Go programs.
//
// An Interpreter keeps its global scope between runs, so a host can bind Go
// values and functions, run trees that use them, and read results back:
//
//	in := nasal.New()
//	defer in.Close()
//	in.Bind("double", func(x int) int { return x * 2 })
//	err := in.RunTree(data)
//	v, err := in.Get("result")
package nasal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/evaluator"
	"github.com/funvibe/nasal/internal/heap"
	"github.com/funvibe/nasal/internal/pipeline"
)

// Interpreter owns a heap and an evaluator with builtins registered.
type Interpreter struct {
	heap       *heap.Heap
	eval       *evaluator.Evaluator
	marshaller *Marshaller
	reporter   *diagnostics.Reporter
}

type options struct {
	out    io.Writer
	errOut io.Writer
	log    *slog.Logger
}

// Option configures an Interpreter.
type Option func(*options)

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithErrors sets where runtime errors are reported. Defaults to io.Discard;
// errors are always returned to the caller.
func WithErrors(w io.Writer) Option {
	return func(o *options) { o.errOut = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates an Interpreter.
func New(opts ...Option) *Interpreter {
	o := options{out: os.Stdout, errOut: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	var heapOpts []heap.Option
	evalOpts := []evaluator.Option{evaluator.WithOutput(o.out)}
	repOpts := []diagnostics.ReporterOption{diagnostics.WithColor("never")}
	if o.log != nil {
		heapOpts = append(heapOpts, heap.WithLogger(o.log))
		evalOpts = append(evalOpts, evaluator.WithLogger(o.log))
		repOpts = append(repOpts, diagnostics.WithLogger(o.log))
	}
	h := heap.New(heapOpts...)
	rep := diagnostics.NewReporter(o.errOut, repOpts...)
	ev := evaluator.New(h, append(evalOpts, evaluator.WithReporter(rep))...)
	ev.RegisterBuiltins()
	return &Interpreter{
		heap:       h,
		eval:       ev,
		marshaller: NewMarshaller(h),
		reporter:   rep,
	}
}

// Bind defines name in the global scope as the Go value val. Go functions
// become callable natives; other values are copied into the heap.
func (in *Interpreter) Bind(name string, val interface{}) error {
	r, err := in.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("binding %s: %w", name, err)
	}
	if fn, ok := in.heap.Get(r).(*heap.Function); ok && fn.Name == "" {
		fn.Name = name
	}
	in.heap.Define(in.eval.Global, name, r)
	return nil
}

// Get converts the global named name to a Go value.
func (in *Interpreter) Get(name string) (interface{}, error) {
	c, ok := in.heap.Lookup(in.eval.Global, name)
	if !ok {
		return nil, fmt.Errorf("variable '%s' not found", name)
	}
	return in.marshaller.FromValue(in.heap.Read(c), nil)
}

// Call calls the global function named name with Go arguments.
func (in *Interpreter) Call(name string, args ...interface{}) (interface{}, error) {
	c, ok := in.heap.Lookup(in.eval.Global, name)
	if !ok {
		return nil, fmt.Errorf("function '%s' not found", name)
	}
	refs := make([]heap.Ref, 0, len(args))
	defer func() {
		for _, r := range refs {
			in.heap.Release(r)
		}
	}()
	for i, arg := range args {
		r, err := in.marshaller.ToValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		refs = append(refs, r)
	}

	result, err := in.eval.Call(in.heap.Read(c), refs)
	if err != nil {
		in.reporter.Report(err)
		return nil, err
	}
	defer in.heap.Release(result)
	return in.marshaller.FromValue(result, nil)
}

// Run executes a syntax tree in the global scope.
func (in *Interpreter) Run(program *ast.Node) error {
	if err := pipeline.ValidateTree(program); err != nil {
		return err
	}
	return in.eval.Run(program).Err
}

// RunTree decodes a serialized tree and runs it.
func (in *Interpreter) RunTree(data []byte) error {
	ctx := pipeline.New(&pipeline.DecodeProcessor{}).Run(&pipeline.PipelineContext{FilePath: "<embedded>", Source: data})
	if ctx.Failed() {
		return errors.Join(ctx.Errors...)
	}
	return in.Run(ctx.AstRoot)
}

// Errors is the number of runtime errors seen so far.
func (in *Interpreter) Errors() int {
	return in.reporter.Count()
}

// Close releases the global scope and returns how many heap values were
// still allocated afterwards. Those are kept alive by reference cycles.
func (in *Interpreter) Close() int {
	in.eval.Shutdown()
	return in.heap.Stats().Live
}
