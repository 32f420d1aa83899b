package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/calc"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

func (e *Evaluator) evalNumberLiteral(node *ast.Node) (heap.Ref, error) {
	f, ok := calc.ParseNumber(node.Text)
	if !ok {
		return heap.Ref{}, diagnostics.New(diagnostics.NonNumerableCoercion, "number", "malformed numeric literal %q", node.Text)
	}
	return e.Heap.NewNumber(f), nil
}

// evalElements evaluates nodes left to right. On failure every value
// produced so far is released.
func (e *Evaluator) evalElements(nodes []*ast.Node, scope heap.Ref) ([]heap.Ref, error) {
	refs := make([]heap.Ref, 0, len(nodes))
	for _, n := range nodes {
		v, err := e.Eval(n, scope)
		if err != nil {
			e.releaseAll(refs)
			return nil, err
		}
		refs = append(refs, v)
	}
	return refs, nil
}

func (e *Evaluator) evalVectorLiteral(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	elems, err := e.evalElements(node.Children, scope)
	if err != nil {
		return heap.Ref{}, err
	}
	return e.Heap.NewVector(elems...), nil
}

// evalTuple evaluates a parenthesised list, e.g. the right side of a
// multi-assignment, into a fresh vector.
func (e *Evaluator) evalTuple(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	return e.evalVectorLiteral(node, scope)
}

func (e *Evaluator) evalHashLiteral(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	hash := e.Heap.NewHash()
	for _, pair := range node.Children {
		v, err := e.Eval(pair.Child(0), scope)
		if err != nil {
			e.Heap.Release(hash)
			return heap.Ref{}, err
		}
		if _, err := e.Heap.SetMember(hash, pair.Text, v); err != nil {
			e.Heap.Release(v)
			e.Heap.Release(hash)
			return heap.Ref{}, err
		}
	}
	return hash, nil
}

// evalFunctionLiteral creates a function capturing scope.
func (e *Evaluator) evalFunctionLiteral(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	fn := &heap.Function{
		Params: paramsOf(node.Child(0)),
		Body:   node.Child(1),
	}
	if scope.Valid() {
		e.Heap.Retain(scope)
		fn.Closure = scope
	} else {
		fn.Closure = e.Heap.PushFrame(heap.Ref{})
	}
	return e.Heap.Alloc(fn), nil
}

func paramsOf(list *ast.Node) []heap.Param {
	if list == nil {
		return nil
	}
	params := make([]heap.Param, 0, len(list.Children))
	for _, p := range list.Children {
		switch p.Kind {
		case ast.Param:
			params = append(params, heap.Param{Name: p.Text})
		case ast.DefaultParam:
			params = append(params, heap.Param{Name: p.Text, Default: p.Child(0)})
		case ast.VariadicParam:
			params = append(params, heap.Param{Name: p.Text, Variadic: true})
		}
	}
	return params
}
