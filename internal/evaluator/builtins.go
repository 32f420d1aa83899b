package evaluator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/nasal/internal/calc"
	"github.com/funvibe/nasal/internal/config"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

type builtin struct {
	params []heap.Param
	fn     func(e *Evaluator, args []heap.Ref) (heap.Ref, error)
}

func param(name string) heap.Param    { return heap.Param{Name: name} }
func variadic(name string) heap.Param { return heap.Param{Name: name, Variadic: true} }

var builtins = map[string]builtin{
	config.PrintFuncName:    {[]heap.Param{variadic("args")}, builtinPrint},
	config.SizeFuncName:     {[]heap.Param{param("x")}, builtinSize},
	config.AppendFuncName:   {[]heap.Param{param("vec"), variadic("items")}, builtinAppend},
	config.TypeOfFuncName:   {[]heap.Param{param("x")}, builtinTypeOf},
	config.KeysFuncName:     {[]heap.Param{param("hash")}, builtinKeys},
	config.ContainsFuncName: {[]heap.Param{param("hash"), param("key")}, builtinContains},
	config.NumFuncName:      {[]heap.Param{param("x")}, builtinNum},
	config.StrFuncName:      {[]heap.Param{param("x")}, builtinStr},
}

// RegisterBuiltins defines every builtin function in the global scope.
func (e *Evaluator) RegisterBuiltins() {
	for _, name := range config.BuiltinNames {
		b := builtins[name]
		impl := b.fn
		fn := &heap.Function{Name: name, Params: b.params}
		fn.Native = func(args []heap.Ref) (heap.Ref, error) {
			if err := checkArity(fn, args); err != nil {
				return heap.Ref{}, err
			}
			return impl(e, args)
		}
		e.Heap.Define(e.Global, name, e.Heap.Alloc(fn))
	}
}

func checkArity(fn *heap.Function, args []heap.Ref) error {
	fixed := len(fn.Params)
	if fn.Variadic() {
		fixed--
		if len(args) < fixed {
			return diagnostics.New(diagnostics.ArityMismatch, fn.Name, "expected at least %d arguments, got %d", fixed, len(args))
		}
		return nil
	}
	if len(args) != fixed {
		return diagnostics.New(diagnostics.ArityMismatch, fn.Name, "expected %d arguments, got %d", fixed, len(args))
	}
	return nil
}

func builtinPrint(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(e.Heap.Format(a))
	}
	fmt.Fprintln(e.Out, sb.String())
	return e.Heap.NewNil(), nil
}

func builtinSize(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	switch v := e.Heap.Get(args[0]).(type) {
	case *heap.Vector:
		return e.Heap.NewNumber(float64(v.Len())), nil
	case *heap.Hash:
		return e.Heap.NewNumber(float64(len(v.Members))), nil
	case *heap.String:
		return e.Heap.NewNumber(float64(len(v.Value))), nil
	}
	return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, config.SizeFuncName, "a %s has no size", e.Heap.Kind(args[0]))
}

// builtinAppend adds items to vec in place and returns vec.
func builtinAppend(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	vec := args[0]
	if e.Heap.Kind(vec) != heap.KindVector {
		return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, config.AppendFuncName, "cannot append to a %s", e.Heap.Kind(vec))
	}
	for _, item := range args[1:] {
		if err := e.Heap.Append(vec, e.Heap.Load(item)); err != nil {
			return heap.Ref{}, err
		}
	}
	return e.Heap.Load(vec), nil
}

func builtinTypeOf(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	return e.Heap.NewString(e.Heap.Kind(args[0]).String()), nil
}

func builtinKeys(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	hv, ok := e.Heap.Get(args[0]).(*heap.Hash)
	if !ok {
		return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, config.KeysFuncName, "a %s has no keys", e.Heap.Kind(args[0]))
	}
	names := make([]string, 0, len(hv.Members))
	for name := range hv.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	keys := make([]heap.Ref, len(names))
	for i, name := range names {
		keys[i] = e.Heap.NewString(name)
	}
	return e.Heap.NewVector(keys...), nil
}

func builtinContains(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	hv, ok := e.Heap.Get(args[0]).(*heap.Hash)
	if !ok {
		return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, config.ContainsFuncName, "cannot look up keys in a %s", e.Heap.Kind(args[0]))
	}
	key, err := e.Calc.Text(args[1], config.ContainsFuncName)
	if err != nil {
		return heap.Ref{}, err
	}
	_, found := hv.Members[key]
	return e.truth(found), nil
}

// builtinNum converts to a number, yielding nil when that is impossible.
func builtinNum(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	switch v := e.Heap.Get(args[0]).(type) {
	case *heap.Number:
		return e.Heap.NewNumber(v.Value), nil
	case *heap.String:
		if f, ok := calc.ParseNumber(v.Value); ok {
			return e.Heap.NewNumber(f), nil
		}
	}
	return e.Heap.NewNil(), nil
}

func builtinStr(e *Evaluator, args []heap.Ref) (heap.Ref, error) {
	s, err := e.Calc.Text(args[0], config.StrFuncName)
	if err != nil {
		return heap.Ref{}, err
	}
	return e.Heap.NewString(s), nil
}
