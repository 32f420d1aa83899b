package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

// loopBody runs one iteration. stop is set when the loop must end; out is
// the outcome the loop statement finishes with in that case.
func (e *Evaluator) loopBody(body *ast.Node, scope heap.Ref) (out Outcome, stop bool) {
	e.loops++
	out = e.execBlock(body, scope)
	e.loops--
	switch out.Signal {
	case SignalBreak:
		return normal(), true
	case SignalReturn, SignalError:
		return out, true
	}
	return normal(), false
}

func (e *Evaluator) execWhile(node *ast.Node, scope heap.Ref) Outcome {
	for {
		ok, err := e.condition(node.Child(0), scope)
		if err != nil {
			return failed(err)
		}
		if !ok {
			return normal()
		}
		if out, stop := e.loopBody(node.Child(1), scope); stop {
			return out
		}
	}
}

// execFor runs for(init; cond; step) body. The init clause is scoped to the
// loop. An omitted condition is always true.
func (e *Evaluator) execFor(node *ast.Node, scope heap.Ref) Outcome {
	frame := e.Heap.PushFrame(scope)
	defer e.Heap.PopFrame(frame)

	if init := node.Child(0); !init.Omitted() {
		if out := e.Exec(init, frame); out.Interrupted() {
			return out
		}
	}
	cond, step, body := node.Child(1), node.Child(2), node.Child(3)
	for {
		if !cond.Omitted() {
			ok, err := e.condition(cond, frame)
			if err != nil {
				return failed(err)
			}
			if !ok {
				return normal()
			}
		}
		if out, stop := e.loopBody(body, frame); stop {
			return out
		}
		if !step.Omitted() {
			v, err := e.Eval(step, frame)
			if err != nil {
				return failed(err)
			}
			e.Heap.Release(v)
		}
	}
}

// execForIndexed runs forindex and foreach loops. The loop variable is either
// a new variable local to the loop or an existing binding that is reassigned.
// The iteration count is fixed when the loop starts.
func (e *Evaluator) execForIndexed(node *ast.Node, scope heap.Ref) Outcome {
	seq, err := e.Eval(node.Child(1), scope)
	if err != nil {
		return failed(err)
	}
	defer e.Heap.Release(seq)
	vec, ok := e.Heap.Get(seq).(*heap.Vector)
	if !ok {
		return failed(diagnostics.New(diagnostics.TypeMismatch, node.Kind.String(), "cannot iterate over a %s", e.Heap.Kind(seq)))
	}

	frame := e.Heap.PushFrame(scope)
	defer e.Heap.PopFrame(frame)

	variable := node.Child(0)
	var cell heap.CellRef
	if variable.Kind == ast.NewVar {
		cell = e.Heap.Define(frame, variable.Text, e.Heap.NewNil())
	} else {
		c, ok := e.lookup(frame, variable.Text)
		if !ok {
			return failed(undefined(variable.Text))
		}
		cell = c
	}

	n := vec.Len()
	for i := 0; i < n; i++ {
		var v heap.Ref
		if node.Kind == ast.ForIndex {
			v = e.Heap.NewNumber(float64(i))
		} else {
			v = e.Heap.Load(e.Heap.Read(vec.Elems[i]))
		}
		e.Heap.Rebind(cell, v)
		e.Heap.Release(v)
		if out, stop := e.loopBody(node.Child(2), frame); stop {
			return out
		}
	}
	return normal()
}
