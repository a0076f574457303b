package symindex

import "fmt"

// Handle is the position of a value inside a Table.
type Handle uint32

// OptHandle is a Handle that may be absent. The zero value is absent.
type OptHandle struct {
	v uint32 // handle+1, 0 when absent
}

// Some returns a present OptHandle for h.
func Some(h Handle) OptHandle {
	return OptHandle{uint32(h) + 1}
}

// Get returns the handle and true if o is present.
func (o OptHandle) Get() (Handle, bool) {
	if o.v == 0 {
		return 0, false
	}
	return Handle(o.v - 1), true
}

// IsSome returns true if o is present.
func (o OptHandle) IsSome() bool {
	return o.v != 0
}

func (o OptHandle) String() string {
	if h, ok := o.Get(); ok {
		return fmt.Sprintf("%d", h)
	}
	return "none"
}

// Table is an append-only interning table. Inserting a value equal to one
// already in the table returns the handle of the existing value.
// The zero value is an empty table ready to use.
type Table[T comparable] struct {
	index map[T]Handle
	items []T
}

// Insert returns the handle of v, adding it to the table if it is not
// already present. Handles are assigned sequentially starting at 0.
func (t *Table[T]) Insert(v T) Handle {
	if h, ok := t.index[v]; ok {
		return h
	}
	if t.index == nil {
		t.index = make(map[T]Handle)
	}
	h := Handle(len(t.items))
	t.items = append(t.items, v)
	t.index[v] = h
	return h
}

// Get returns the value for handle h. It panics if h was not returned by
// Insert on this table.
func (t *Table[T]) Get(h Handle) T {
	return t.items[h]
}

// Len returns the number of distinct values in the table.
func (t *Table[T]) Len() int {
	return len(t.items)
}
