package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/config"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

// evalInvoke calls fnRef with the arguments of an invoke step. self is the
// hash the function was read from, or the zero Ref.
func (e *Evaluator) evalInvoke(fnRef, self heap.Ref, step *ast.Node, scope heap.Ref) (heap.Ref, error) {
	fn, ok := e.Heap.Get(fnRef).(*heap.Function)
	if !ok {
		return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, "call", "cannot call a %s", e.Heap.Kind(fnRef))
	}
	if fn.Native != nil {
		return e.callNative(fnRef, fn, step, scope)
	}

	frame := e.Heap.PushFrame(fn.Closure)
	defer e.Heap.PopFrame(frame)

	var me heap.Ref
	if self.Valid() {
		me = e.Heap.Load(self)
	} else {
		me = e.Heap.NewNil()
	}
	e.Heap.Define(frame, config.SelfName, me)

	var err error
	switch {
	case len(step.Children) == 0:
		err = e.bindDefaults(fn, frame, scope, nil)
	case step.Children[0].Kind == ast.NamedArg:
		err = e.bindNamed(fn, frame, step.Children, scope)
	default:
		err = e.bindPositional(fn, frame, step.Children, scope)
	}
	if err != nil {
		return heap.Ref{}, err
	}
	return e.runBody(fn, frame)
}

func arity(format string, a ...interface{}) error {
	return diagnostics.New(diagnostics.ArityMismatch, "call", format, a...)
}

// bindDefaults binds every parameter not listed in bound: variadics to an
// empty vector, others to their default evaluated in the caller's scope.
func (e *Evaluator) bindDefaults(fn *heap.Function, frame, caller heap.Ref, bound map[string]bool) error {
	for _, p := range fn.Params {
		if bound[p.Name] {
			continue
		}
		switch {
		case p.Variadic:
			e.Heap.Define(frame, p.Name, e.Heap.NewVector())
		case p.Default != nil:
			v, err := e.Eval(p.Default, caller)
			if err != nil {
				return err
			}
			e.Heap.Define(frame, p.Name, v)
		default:
			return arity("missing argument for parameter '%s'", p.Name)
		}
	}
	return nil
}

func (e *Evaluator) bindNamed(fn *heap.Function, frame heap.Ref, args []*ast.Node, caller heap.Ref) error {
	declared := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		declared[p.Name] = true
	}
	bound := make(map[string]bool, len(args))
	for _, arg := range args {
		if arg.Kind != ast.NamedArg {
			return arity("named and positional arguments cannot be mixed")
		}
		if !declared[arg.Text] {
			return arity("no parameter named '%s'", arg.Text)
		}
		if bound[arg.Text] {
			return arity("parameter '%s' given more than once", arg.Text)
		}
		bound[arg.Text] = true
	}
	for _, arg := range args {
		v, err := e.Eval(arg.Child(0), caller)
		if err != nil {
			return err
		}
		e.Heap.Define(frame, arg.Text, v)
	}
	return e.bindDefaults(fn, frame, caller, bound)
}

func (e *Evaluator) bindPositional(fn *heap.Function, frame heap.Ref, args []*ast.Node, caller heap.Ref) error {
	for _, arg := range args {
		if arg.Kind == ast.NamedArg {
			return arity("named and positional arguments cannot be mixed")
		}
	}
	if err := checkCount(fn, len(args)); err != nil {
		return err
	}
	values, err := e.evalElements(args, caller)
	if err != nil {
		return err
	}
	return e.bindValues(fn, frame, values, caller)
}

func checkCount(fn *heap.Function, n int) error {
	if n > len(fn.Params) && !fn.Variadic() {
		return arity("expected at most %d arguments, got %d", len(fn.Params), n)
	}
	return nil
}

// bindValues binds values to parameters in order, consuming them. Surplus
// values go to the variadic parameter.
func (e *Evaluator) bindValues(fn *heap.Function, frame heap.Ref, values []heap.Ref, caller heap.Ref) error {
	bound := make(map[string]bool, len(fn.Params))
	for i, p := range fn.Params {
		if p.Variadic {
			var rest []heap.Ref
			if i < len(values) {
				rest = values[i:]
			}
			e.Heap.Define(frame, p.Name, e.Heap.NewVector(rest...))
			bound[p.Name] = true
			break
		}
		if i >= len(values) {
			break
		}
		e.Heap.Define(frame, p.Name, values[i])
		bound[p.Name] = true
	}
	return e.bindDefaults(fn, frame, caller, bound)
}

// Call invokes the function fnRef with positional arguments. The arguments
// stay owned by the caller; the result is a new owned reference. Defaults are
// evaluated in the global scope.
func (e *Evaluator) Call(fnRef heap.Ref, args []heap.Ref) (heap.Ref, error) {
	fn, ok := e.Heap.Get(fnRef).(*heap.Function)
	if !ok {
		return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, "call", "cannot call a %s", e.Heap.Kind(fnRef))
	}
	if fn.Native != nil {
		e.PushCall(fn.Name)
		defer e.PopCall()
		v, err := fn.Native(args)
		if err != nil {
			return heap.Ref{}, e.withStack(err)
		}
		return v, nil
	}
	if err := checkCount(fn, len(args)); err != nil {
		return heap.Ref{}, err
	}

	frame := e.Heap.PushFrame(fn.Closure)
	defer e.Heap.PopFrame(frame)
	e.Heap.Define(frame, config.SelfName, e.Heap.NewNil())

	values := make([]heap.Ref, len(args))
	for i, a := range args {
		values[i] = e.Heap.Load(a)
	}
	if err := e.bindValues(fn, frame, values, e.Global); err != nil {
		return heap.Ref{}, err
	}
	return e.runBody(fn, frame)
}

// runBody executes a user function body in its call frame. Loop context does
// not cross the call boundary.
func (e *Evaluator) runBody(fn *heap.Function, frame heap.Ref) (heap.Ref, error) {
	e.PushCall(fn.Name)
	savedLoops := e.loops
	e.loops = 0
	e.calls++
	defer func() {
		e.calls--
		e.loops = savedLoops
		e.PopCall()
	}()

	var stmts []*ast.Node
	if fn.Body != nil {
		stmts = fn.Body.Children
	}
	out := e.execStatements(stmts, frame)
	switch out.Signal {
	case SignalReturn:
		return out.Value, nil
	case SignalError:
		return heap.Ref{}, e.withStack(out.Err)
	}
	return e.Heap.NewNil(), nil
}

func (e *Evaluator) callNative(fnRef heap.Ref, fn *heap.Function, step *ast.Node, scope heap.Ref) (heap.Ref, error) {
	for _, arg := range step.Children {
		if arg.Kind == ast.NamedArg {
			return heap.Ref{}, arity("builtin %s takes positional arguments only", fn.Name)
		}
	}
	args, err := e.evalElements(step.Children, scope)
	if err != nil {
		return heap.Ref{}, err
	}
	defer e.releaseAll(args)
	return e.Call(fnRef, args)
}
