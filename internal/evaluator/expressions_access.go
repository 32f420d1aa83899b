package evaluator

import (
	"math"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/heap"
)

// evalCallChain resolves base[...], base.member and base(...) steps left to
// right. Each step consumes the previous value. A member step remembers its
// hash so that an immediately following invocation binds it as me.
func (e *Evaluator) evalCallChain(node *ast.Node, scope heap.Ref) (heap.Ref, error) {
	cur, err := e.Eval(node.Child(0), scope)
	if err != nil {
		return heap.Ref{}, err
	}
	var self heap.Ref
	defer func() { e.release(self) }()

	for _, step := range node.Children[1:] {
		next, err := e.evalStep(cur, self, step, scope)
		if step.Kind == ast.Member {
			e.release(self)
			self = cur
		} else {
			e.release(self)
			self = heap.Ref{}
			e.Heap.Release(cur)
		}
		if err != nil {
			return heap.Ref{}, err
		}
		cur = next
	}
	return cur, nil
}

func (e *Evaluator) evalStep(cur, self heap.Ref, step *ast.Node, scope heap.Ref) (heap.Ref, error) {
	switch step.Kind {
	case ast.Index:
		return e.evalIndex(cur, step, scope)
	case ast.Member:
		return e.evalMember(cur, step.Text)
	case ast.Invoke:
		return e.evalInvoke(cur, self, step, scope)
	}
	return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, "call", "unexpected %s step in call chain", step.Kind)
}

func (e *Evaluator) evalMember(base heap.Ref, name string) (heap.Ref, error) {
	hv, ok := e.Heap.Get(base).(*heap.Hash)
	if !ok {
		return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, "member", "cannot read member '%s' of a %s", name, e.Heap.Kind(base))
	}
	c, ok := hv.Members[name]
	if !ok {
		return heap.Ref{}, diagnostics.New(diagnostics.UndefinedIdentifier, "member", "hash has no member named '%s'", name)
	}
	return e.Heap.Load(e.Heap.Read(c)), nil
}

func (e *Evaluator) evalIndex(base heap.Ref, step *ast.Node, scope heap.Ref) (heap.Ref, error) {
	switch v := e.Heap.Get(base).(type) {
	case *heap.Vector:
		return e.indexVector(v, step, scope)
	case *heap.Hash:
		c, _, err := e.hashCell(v, step, scope, false)
		if err != nil {
			return heap.Ref{}, err
		}
		return e.Heap.Load(e.Heap.Read(c)), nil
	case *heap.String:
		if err := singleKey(step, "string"); err != nil {
			return heap.Ref{}, err
		}
		i, err := e.evalIndexNumber(step.Child(0), scope, "index")
		if err != nil {
			return heap.Ref{}, err
		}
		n := len(v.Value)
		if i < -n || i >= n {
			return heap.Ref{}, outOfRange(i, n)
		}
		if i < 0 {
			i += n
		}
		return e.Heap.NewNumber(float64(v.Value[i])), nil
	}
	return heap.Ref{}, diagnostics.New(diagnostics.TypeMismatch, "index", "cannot index a %s", e.Heap.Kind(base))
}

// singleKey enforces one plain key per step for hashes and strings.
func singleKey(step *ast.Node, what string) error {
	if len(step.Children) != 1 {
		return diagnostics.New(diagnostics.TypeMismatch, "index", "a %s takes exactly one key per index step", what)
	}
	if step.Children[0].Kind == ast.Slice {
		return diagnostics.New(diagnostics.TypeMismatch, "slice", "cannot slice a %s", what)
	}
	return nil
}

func outOfRange(i, n int) error {
	return diagnostics.New(diagnostics.IndexOutOfRange, "index", "index %d out of range for length %d", i, n)
}

// hashCell resolves the member cell a single-key index step names. With
// create set, a missing member is added bound to nil and its name returned.
func (e *Evaluator) hashCell(hv *heap.Hash, step *ast.Node, scope heap.Ref, create bool) (heap.CellRef, string, error) {
	if err := singleKey(step, "hash"); err != nil {
		return heap.CellRef{}, "", err
	}
	key, err := e.Eval(step.Child(0), scope)
	if err != nil {
		return heap.CellRef{}, "", err
	}
	defer e.Heap.Release(key)
	name, err := e.Calc.Text(key, "index")
	if err != nil {
		return heap.CellRef{}, "", err
	}
	return e.memberCell(hv, name, create)
}

func (e *Evaluator) memberCell(hv *heap.Hash, name string, create bool) (heap.CellRef, string, error) {
	if c, ok := hv.Members[name]; ok {
		return c, "", nil
	}
	if !create {
		return heap.CellRef{}, "", diagnostics.New(diagnostics.UndefinedIdentifier, "index", "hash has no member named '%s'", name)
	}
	c := e.Heap.NewCell(e.Heap.NewNil())
	hv.Members[name] = c
	return c, name, nil
}

// evalIndexNumber evaluates an index expression to an integer. Numerable
// strings are accepted.
func (e *Evaluator) evalIndexNumber(node *ast.Node, scope heap.Ref, op string) (int, error) {
	v, err := e.Eval(node, scope)
	if err != nil {
		return 0, err
	}
	defer e.Heap.Release(v)
	f, err := e.Calc.Number(v, op)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, diagnostics.New(diagnostics.TypeMismatch, op, "index %s is not finite", heap.FormatNumber(f))
	}
	return int(f), nil
}

// indexVector collects the cells named by every key of the step. One cell
// yields its value (scalars copied, containers shared); anything else yields
// a fresh vector.
func (e *Evaluator) indexVector(v *heap.Vector, step *ast.Node, scope heap.Ref) (heap.Ref, error) {
	var cells []heap.CellRef
	for _, key := range step.Children {
		if key.Kind == ast.Slice {
			sel, err := e.sliceCells(v, key, scope)
			if err != nil {
				return heap.Ref{}, err
			}
			cells = append(cells, sel...)
			continue
		}
		i, err := e.evalIndexNumber(key, scope, "index")
		if err != nil {
			return heap.Ref{}, err
		}
		c, ok := v.Cell(i)
		if !ok {
			return heap.Ref{}, outOfRange(i, v.Len())
		}
		cells = append(cells, c)
	}
	if len(cells) == 1 {
		return e.Heap.Load(e.Heap.Read(cells[0])), nil
	}
	elems := make([]heap.Ref, len(cells))
	for i, c := range cells {
		elems[i] = e.Heap.Load(e.Heap.Read(c))
	}
	return e.Heap.NewVector(elems...), nil
}

// sliceCells selects [begin, end) of v. Negative bounds count from the end;
// an omitted begin means the start and an omitted end means the end.
func (e *Evaluator) sliceCells(v *heap.Vector, slice *ast.Node, scope heap.Ref) ([]heap.CellRef, error) {
	n := v.Len()
	bound := func(node *ast.Node, def int) (int, bool, error) {
		if node == nil || node.Omitted() {
			return def, false, nil
		}
		i, err := e.evalIndexNumber(node, scope, "slice")
		if err != nil {
			return 0, true, err
		}
		if i < 0 {
			i += n
		}
		return i, true, nil
	}
	begin, hasBegin, err := bound(slice.Child(0), 0)
	if err != nil {
		return nil, err
	}
	end, hasEnd, err := bound(slice.Child(1), n)
	if err != nil {
		return nil, err
	}
	if hasBegin && hasEnd && begin >= end {
		return nil, diagnostics.New(diagnostics.InvalidSliceBounds, "slice", "begin %d must be less than end %d", begin, end)
	}
	if begin < 0 || begin > n {
		return nil, outOfRange(begin, n)
	}
	if end < 0 || end > n {
		return nil, outOfRange(end, n)
	}
	if begin >= end {
		return nil, nil
	}
	return append([]heap.CellRef(nil), v.Elems[begin:end]...), nil
}
