package heap

import "fmt"

// Ref addresses a heap entry. The generation changes every time a slot is
// reused, so a Ref that outlived its entry is detected instead of silently
// resolving to a newer value. The zero Ref is never valid.
type Ref struct {
	slot uint32
	gen  uint32
}

// Valid reports whether r was produced by an allocation. It does not say
// whether the entry is still live; see Heap.Live.
func (r Ref) Valid() bool { return r.gen != 0 }

func (r Ref) String() string {
	if !r.Valid() {
		return "@-"
	}
	return fmt.Sprintf("@%d.%d", r.slot, r.gen)
}

// CellRef addresses a cell: the indirection that backs a variable binding,
// vector element or hash member.
type CellRef struct {
	slot uint32
	gen  uint32
}

func (c CellRef) Valid() bool { return c.gen != 0 }

func (c CellRef) String() string {
	if !c.Valid() {
		return "&-"
	}
	return fmt.Sprintf("&%d.%d", c.slot, c.gen)
}

// StaleRefError is the panic value raised when a handle is used after its
// entry was freed, or was never allocated by this heap.
type StaleRefError struct {
	Handle string
	Reason string
}

func (e *StaleRefError) Error() string {
	return fmt.Sprintf("stale handle %s: %s", e.Handle, e.Reason)
}

func nextGen(g uint32) uint32 {
	g++
	if g == 0 {
		g = 1
	}
	return g
}
