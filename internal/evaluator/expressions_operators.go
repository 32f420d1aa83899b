package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/heap"
)

func (e *Evaluator) evalBinary(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	left, err := e.Eval(node.Child(0), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	defer e.Heap.Release(left)
	right, err := e.Eval(node.Child(1), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	defer e.Heap.Release(right)
	return e.Calc.Binary(node.Kind, left, right)
}

// evalLogical short-circuits: the right operand is evaluated only when the
// left one does not decide the result.
func (e *Evaluator) evalLogical(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	left, err := e.Eval(node.Child(0), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	truth := e.Calc.Truthy(left)
	e.Heap.Release(left)
	if (node.Kind == ast.And && !truth) || (node.Kind == ast.Or && truth) {
		return e.truth(truth), nil
	}
	right, err := e.Eval(node.Child(1), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	truth = e.Calc.Truthy(right)
	e.Heap.Release(right)
	return e.truth(truth), nil
}

func (e *Evaluator) truth(b bool) heap.Ref {
	if b {
		return e.Heap.NewNumber(1)
	}
	return e.Heap.NewNumber(0)
}

func (e *Evaluator) evalUnary(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	operand, err := e.Eval(node.Child(0), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	defer e.Heap.Release(operand)
	return e.Calc.Unary(node.Kind, operand)
}

// evalTernary evaluates only the branch selected by the condition.
func (e *Evaluator) evalTernary(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	ok, err := e.condition(node.Child(0), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	if ok {
		return e.Eval(node.Child(1), scope)
	}
	return e.Eval(node.Child(2), scope)
}

// condition evaluates node and reports its truthiness.
func (e *Evaluator) condition(node *ast.Node, scope heap.Ref) (bool, error) {
	v, err := e.Eval(node, scope)
	if err != nil {
		return false, err
	}
	defer e.Heap.Release(v)
	return e.Calc.Truthy(v), nil
}
