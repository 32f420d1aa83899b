package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

func (e *Evaluator) evalIdentifier(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	c, ok := e.lookup(scope, node.Text)
	if !ok {
		return heap.Ref{}, undefined(node.Text)
	}
	return e.Heap.Load(e.Heap.Read(c)), nil
}

func undefined(name string) error {
	return diagnostics.New(diagnostics.UndefinedIdentifier, "lookup", "cannot find value named '%s'", name)
}
