package observers

import (
	"fmt"

	"alma.local/valobs/fixedhash"
	"alma.local/valobs/ownedref"
)

// ValueObserver observes a single value of type T.
//
// It starts out borrowing memory that the target writes into; every read
// goes through that memory. Set replaces the borrow with an owned copy for
// good. A ValueObserver decoded from JSON, YAML or SSZ is always owned.
//
// The observer never resets the value between executions: PreExec does
// nothing. If values from an earlier execution must not leak into the next
// one, the harness has to reset the underlying storage itself.
type ValueObserver[T any] struct {
	name  string
	value ownedref.OwnedRef[T]
}

// NewValueObserver returns an observer named name that reads *value.
// *value must stay valid for as long as the observer is read or hashed.
// Name uniqueness is enforced by Collection, not here.
func NewValueObserver[T any](name string, value *T) *ValueObserver[T] {
	return &ValueObserver[T]{
		name:  name,
		value: ownedref.Ref(value),
	}
}

func (o *ValueObserver[T]) Name() string {
	return o.name
}

// Get returns a view of the current value, borrowed or owned. Callers must
// not write through it.
func (o *ValueObserver[T]) Get() *T {
	return o.value.AsRef()
}

// Set stores an owned copy of v. Writes to the previously borrowed memory
// are no longer visible afterwards.
func (o *ValueObserver[T]) Set(v T) {
	o.value.Set(v)
}

// Take returns the value, cloned if borrowed and moved if owned. The
// observer must not be used afterwards; any further read panics.
func (o *ValueObserver[T]) Take() T {
	return o.value.Take()
}

// IsOwned reports whether the observer holds its own copy of the value.
func (o *ValueObserver[T]) IsOwned() bool {
	return o.value.IsOwned()
}

// PreExec does not reset the observed value.
func (o *ValueObserver[T]) PreExec(State, []byte) error {
	return nil
}

func (o *ValueObserver[T]) PostExec(State, []byte, ExitKind) error {
	return nil
}

// Hash returns the xxh64-fs/1 digest of the current value.
func (o *ValueObserver[T]) Hash() (uint64, bool) {
	return fixedhash.Of(*o.value.AsRef())
}

func (o *ValueObserver[T]) String() string {
	return fmt.Sprintf("ValueObserver{name: %q, value: %v}", o.name, o.value)
}
