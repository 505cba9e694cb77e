package observers

import (
	"fmt"

	"alma.local/valobs/cell"
	"alma.local/valobs/fixedhash"
	"alma.local/valobs/ownedref"
)

// RefCellValueObserver observes a value the target mutates through a shared
// cell.RefCell.
//
// Reads borrow the cell. Holding a read view from Get while the target (or
// Set) asks for the exclusive view panics, so views must be released before
// the next execution starts. View is the form that cannot leak.
//
// Like ValueObserver, PreExec leaves the value alone.
type RefCellValueObserver[T any] struct {
	name  string
	value ownedref.OwnedRef[cell.RefCell[T]]
}

// NewRefCellValueObserver returns an observer named name that reads through
// c. c must stay valid for as long as the observer is read or hashed.
func NewRefCellValueObserver[T any](name string, c *cell.RefCell[T]) *RefCellValueObserver[T] {
	return &RefCellValueObserver[T]{
		name:  name,
		value: ownedref.Ref(c),
	}
}

func (o *RefCellValueObserver[T]) Name() string {
	return o.name
}

// Get returns a shared read view of the value. The caller must Release it.
func (o *RefCellValueObserver[T]) Get() *cell.Ref[T] {
	return o.value.AsRef().Borrow()
}

// View calls fn with the value under a read view released on return.
func (o *RefCellValueObserver[T]) View(fn func(v *T)) {
	o.value.AsRef().View(fn)
}

// Set replaces the value inside the cell. Unlike ValueObserver.Set the cell
// itself is kept, so a borrowed cell stays shared with the target.
func (o *RefCellValueObserver[T]) Set(v T) {
	o.value.AsRef().Replace(v)
}

// Take returns the value, cloned through the cell if the cell is borrowed
// and moved out of it if owned. The observer must not be used afterwards.
func (o *RefCellValueObserver[T]) Take() T {
	if o.value.IsOwned() {
		c := o.value.Take()
		return c.Into()
	}
	c := o.value.AsRef()
	r := c.Borrow()
	defer r.Release()
	v := ownedref.Clone(*r.Value())
	o.value = ownedref.OwnedRef[cell.RefCell[T]]{}
	return v
}

// IsOwned reports whether the observer owns its cell.
func (o *RefCellValueObserver[T]) IsOwned() bool {
	return o.value.IsOwned()
}

// PreExec does not reset the observed value.
func (o *RefCellValueObserver[T]) PreExec(State, []byte) error {
	return nil
}

func (o *RefCellValueObserver[T]) PostExec(State, []byte, ExitKind) error {
	return nil
}

// Hash returns the xxh64-fs/1 digest of the value inside the cell.
func (o *RefCellValueObserver[T]) Hash() (sum uint64, ok bool) {
	o.View(func(v *T) {
		sum, ok = fixedhash.Of(*v)
	})
	return sum, ok
}

func (o *RefCellValueObserver[T]) String() string {
	if o.value.IsEmpty() {
		return fmt.Sprintf("RefCellValueObserver{name: %q, value: Empty}", o.name)
	}
	return fmt.Sprintf("RefCellValueObserver{name: %q, value: %v}", o.name, o.value.AsRef())
}
