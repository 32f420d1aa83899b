package evaluator

import (
	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/calc"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

// lvalue is an assignable cell. owner, when set, is a reference to the
// container holding the cell and must be released after the write. created
// names a hash member that resolving the target added.
type lvalue struct {
	cell    heap.CellRef
	owner   heap.Ref
	created string
}

func (e *Evaluator) done(lv lvalue) {
	e.release(lv.owner)
}

// abandon drops a resolved target that will not be written, removing the
// member resolution created.
func (e *Evaluator) abandon(lv lvalue) {
	if lv.created != "" {
		e.Heap.DeleteMember(lv.owner, lv.created)
	}
	e.done(lv)
}

// resolveTarget finds the cell an assignment target names. With create set,
// assigning to a missing hash member adds it.
func (e *Evaluator) resolveTarget(node *ast.Node, scope heap.Ref, create bool) (lvalue, error) {
	switch node.Kind {
	case ast.Identifier:
		c, ok := e.lookup(scope, node.Text)
		if !ok {
			return lvalue{}, undefined(node.Text)
		}
		return lvalue{cell: c}, nil
	case ast.Call:
		return e.resolveElement(node, scope, create)
	}
	return lvalue{}, diagnostics.New(diagnostics.TypeMismatch, "assign", "cannot assign to %s", node.Kind)
}

func (e *Evaluator) resolveElement(node *ast.Node, scope heap.Ref, create bool) (lvalue, error) {
	last := node.Children[len(node.Children)-1]
	var base heap.Ref
	var err error
	if len(node.Children) == 2 {
		base, err = e.Eval(node.Children[0], scope)
	} else {
		base, err = e.evalCallChain(&ast.Node{Kind: ast.Call, Children: node.Children[:len(node.Children)-1]}, scope)
	}
	if err != nil {
		return lvalue{}, err
	}

	var c heap.CellRef
	var created string
	switch last.Kind {
	case ast.Index:
		c, created, err = e.elementCell(base, last, scope, create)
	case ast.Member:
		hv, ok := e.Heap.Get(base).(*heap.Hash)
		if !ok {
			err = diagnostics.New(diagnostics.TypeMismatch, "assign", "cannot set member '%s' of a %s", last.Text, e.Heap.Kind(base))
			break
		}
		c, created, err = e.memberCell(hv, last.Text, create)
	default:
		err = diagnostics.New(diagnostics.TypeMismatch, "assign", "cannot assign to the result of a call")
	}
	if err != nil {
		e.Heap.Release(base)
		return lvalue{}, err
	}
	return lvalue{cell: c, owner: base, created: created}, nil
}

func (e *Evaluator) elementCell(base heap.Ref, step *ast.Node, scope heap.Ref, create bool) (heap.CellRef, string, error) {
	switch v := e.Heap.Get(base).(type) {
	case *heap.Vector:
		if err := singleKey(step, "vector element assignment"); err != nil {
			return heap.CellRef{}, "", err
		}
		i, err := e.evalIndexNumber(step.Child(0), scope, "index")
		if err != nil {
			return heap.CellRef{}, "", err
		}
		c, ok := v.Cell(i)
		if !ok {
			return heap.CellRef{}, "", outOfRange(i, v.Len())
		}
		return c, "", nil
	case *heap.Hash:
		return e.hashCell(v, step, scope, create)
	}
	return heap.CellRef{}, "", diagnostics.New(diagnostics.TypeMismatch, "assign", "cannot assign into a %s", e.Heap.Kind(base))
}

// store rebinds lv to v, consuming v, and returns the stored value as a new
// owned result.
func (e *Evaluator) store(lv lvalue, v heap.Ref) heap.Ref {
	e.Heap.Rebind(lv.cell, v)
	e.Heap.Release(v)
	return e.Heap.Load(e.Heap.Read(lv.cell))
}

func (e *Evaluator) evalAssign(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	v, err := e.Eval(node.Child(1), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	target := node.Child(0)
	lv, err := e.resolveTarget(target, scope, true)
	if err != nil {
		e.Heap.Release(v)
		return heap.Ref{}, err
	}
	defer e.done(lv)
	if target.Kind == ast.Identifier {
		e.nameFunction(v, target.Text)
	}
	return e.store(lv, v), nil
}

func (e *Evaluator) evalCompoundAssign(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	op, _ := calc.Compound(node.Kind)
	lv, err := e.resolveTarget(node.Child(0), scope, false)
	if err != nil {
		return heap.Ref{}, err
	}
	defer e.done(lv)
	cur := e.Heap.Load(e.Heap.Read(lv.cell))
	defer e.Heap.Release(cur)
	rhs, err := e.Eval(node.Child(1), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	defer e.Heap.Release(rhs)
	v, err := e.Calc.Binary(op, cur, rhs)
	if err != nil {
		return heap.Ref{}, err
	}
	return e.store(lv, v), nil
}

// unpack evaluates the right side of a multi-assignment or multi-definition
// into want values. All values are produced before any binding changes.
func (e *Evaluator) unpack(node *ast.Node, scope heap.Ref, want int) ([]heap.Ref, error) {
	vec, err := e.Eval(node, scope)
	if err != nil {
		return nil, err
	}
	defer e.Heap.Release(vec)
	vv, ok := e.Heap.Get(vec).(*heap.Vector)
	if !ok {
		return nil, diagnostics.New(diagnostics.TypeMismatch, "assign", "cannot unpack a %s", e.Heap.Kind(vec))
	}
	if vv.Len() != want {
		return nil, arity("%d targets but %d values", want, vv.Len())
	}
	values := make([]heap.Ref, want)
	for i, c := range vv.Elems {
		values[i] = e.Heap.Load(e.Heap.Read(c))
	}
	return values, nil
}

func (e *Evaluator) evalMultiAssign(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	targets := node.Child(0).Children
	values, err := e.unpack(node.Child(1), scope, len(targets))
	if err != nil {
		return heap.Ref{}, err
	}
	defer e.releaseAll(values)
	// Every target is resolved before any is written.
	lvs := make([]lvalue, 0, len(targets))
	for _, t := range targets {
		lv, err := e.resolveTarget(t, scope, true)
		if err != nil {
			for i := len(lvs) - 1; i >= 0; i-- {
				e.abandon(lvs[i])
			}
			return heap.Ref{}, err
		}
		lvs = append(lvs, lv)
	}
	for i, lv := range lvs {
		e.Heap.Rebind(lv.cell, values[i])
	}
	for _, lv := range lvs {
		e.done(lv)
	}
	return e.Heap.NewNil(), nil
}

// nameFunction gives an anonymous user function the name it is first bound to.
func (e *Evaluator) nameFunction(v heap.Ref, name string) {
	if fn, ok := e.Heap.Get(v).(*heap.Function); ok && fn.Name == "" && fn.Native == nil {
		fn.Name = name
	}
}
