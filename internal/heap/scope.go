package heap

import "log/slog"

// PushFrame allocates a new innermost frame on top of parent (which may be
// the zero Ref for a root frame). The returned reference is owned by the
// caller; releasing it pops the frame unless something captured it.
func (h *Heap) PushFrame(parent Ref) Ref {
	if parent.Valid() {
		h.Retain(parent)
	}
	r := h.Alloc(&Closure{Frame: map[string]CellRef{}, Parent: parent})
	if h.log != nil {
		h.log.Debug("push frame", slog.String("scope", r.String()), slog.String("parent", parent.String()))
	}
	return r
}

// PopFrame releases the caller's reference to a frame pushed with PushFrame.
func (h *Heap) PopFrame(scope Ref) {
	if h.log != nil {
		h.log.Debug("pop frame", slog.String("scope", scope.String()), slog.Int("refs", h.RefCount(scope)))
	}
	h.Release(scope)
}

func (h *Heap) closure(scope Ref) *Closure {
	c, ok := h.Get(scope).(*Closure)
	if !ok {
		panic(&StaleRefError{Handle: scope.String(), Reason: "not a scope"})
	}
	return c
}

// Define binds name in the innermost frame of scope, taking over the
// caller's reference to v. Redefining a name in the same frame rebinds its cell.
func (h *Heap) Define(scope Ref, name string, v Ref) CellRef {
	cl := h.closure(scope)
	if c, ok := cl.Frame[name]; ok {
		h.Rebind(c, v)
		h.Release(v)
		return c
	}
	c := h.NewCell(v)
	cl.Frame[name] = c
	return c
}

// Lookup finds the cell bound to name, searching from the innermost frame outwards.
func (h *Heap) Lookup(scope Ref, name string) (CellRef, bool) {
	for s := scope; s.Valid(); {
		cl := h.closure(s)
		if c, ok := cl.Frame[name]; ok {
			return c, true
		}
		s = cl.Parent
	}
	return CellRef{}, false
}

// Encloses reports whether outer is scope itself or one of its ancestors.
func (h *Heap) Encloses(outer, scope Ref) bool {
	for s := scope; s.Valid(); s = h.closure(s).Parent {
		if s == outer {
			return true
		}
	}
	return false
}

// ClearFrame drops every binding of the innermost frame of scope. Used when a
// scope is torn down while it may still be referenced from inside itself.
func (h *Heap) ClearFrame(scope Ref) {
	cl := h.closure(scope)
	frame := cl.Frame
	cl.Frame = map[string]CellRef{}
	for _, c := range frame {
		h.freeCell(c)
	}
}

// Names lists the names bound in the innermost frame of scope.
func (h *Heap) Names(scope Ref) []string {
	cl := h.closure(scope)
	names := make([]string, 0, len(cl.Frame))
	for name := range cl.Frame {
		names = append(names, name)
	}
	return names
}
