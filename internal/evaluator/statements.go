package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/heap"
)

// execStatements runs stmts in order and stops at the first statement that
// does not finish normally.
func (e *Evaluator) execStatements(stmts []*ast.Node, scope heap.Ref) Outcome {
	for _, stmt := range stmts {
		if out := e.Exec(stmt, scope); out.Interrupted() {
			return out
		}
	}
	return normal()
}

// execBlock runs a block in a new frame. The frame is popped on every exit
// path; closures created inside keep it alive.
func (e *Evaluator) execBlock(block *ast.Node, scope heap.Ref) Outcome {
	if block == nil {
		return normal()
	}
	frame := e.Heap.PushFrame(scope)
	defer e.Heap.PopFrame(frame)
	return e.execStatements(block.Children, frame)
}

func (e *Evaluator) execDefinition(node *ast.Node, scope heap.Ref) Outcome {
	target := node.Child(0)
	if target.Kind == ast.Multi {
		values, err := e.unpack(node.Child(1), scope, len(target.Children))
		if err != nil {
			return failed(err)
		}
		for i, name := range target.Children {
			e.Heap.Define(scope, name.Text, values[i])
		}
		return normal()
	}
	v, err := e.Eval(node.Child(1), scope)
	if err != nil {
		return failed(err)
	}
	e.nameFunction(v, target.Text)
	e.Heap.Define(scope, target.Text, v)
	return normal()
}
