package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

func (e *Evaluator) execConditional(node *ast.Node, scope heap.Ref) Outcome {
	for _, branch := range node.Children {
		if branch.Kind == ast.Else {
			return e.execBlock(branch.Child(0), scope)
		}
		ok, err := e.condition(branch.Child(0), scope)
		if err != nil {
			return failed(err)
		}
		if ok {
			return e.execBlock(branch.Child(1), scope)
		}
	}
	return normal()
}

func illegal(op, format string, a ...interface{}) Outcome {
	return failed(diagnostics.New(diagnostics.IllegalControlFlow, op, format, a...))
}

func (e *Evaluator) execBreak() Outcome {
	if e.loops == 0 {
		return illegal("break", "break outside a loop body")
	}
	return Outcome{Signal: SignalBreak}
}

func (e *Evaluator) execContinue() Outcome {
	if e.loops == 0 {
		return illegal("continue", "continue outside a loop body")
	}
	return Outcome{Signal: SignalContinue}
}

func (e *Evaluator) execReturn(node *ast.Node, scope heap.Ref) Outcome {
	if e.calls == 0 {
		return illegal("return", "return outside a function body")
	}
	if len(node.Children) == 0 {
		return returned(e.Heap.NewNil())
	}
	v, err := e.Eval(node.Children[0], scope)
	if err != nil {
		return failed(err)
	}
	return returned(v)
}
