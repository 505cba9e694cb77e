// Package cell provides RefCell, a mutable memory location with runtime
// borrow checking.
//
// A RefCell may hand out any number of shared read views or exactly one
// exclusive write view at a time. Asking for a view that conflicts with a
// live one is a programming error and panics with a *BorrowError; the Try
// variants report the same condition as an error instead.
//
// RefCell is meant for aliasing inside a single execution context: the code
// under test writes through the same cell an observer reads. It performs no
// locking and is not safe for concurrent use. A RefCell must not be copied
// after first use.
package cell

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrAlreadyBorrowed        = errors.New("already borrowed")
	ErrAlreadyMutablyBorrowed = errors.New("already mutably borrowed")
	ErrReleased               = errors.New("view already released")
)

// BorrowError describes a conflicting or invalid access to a RefCell.
type BorrowError struct {
	Op  string
	Err error
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("cell: %s: %v", e.Op, e.Err)
}

func (e *BorrowError) Unwrap() error {
	return e.Err
}

// borrowed > 0 counts live shared views, borrowed == writing marks the
// exclusive view.
const writing = -1

// RefCell holds a T behind runtime borrow checks. The zero value holds the
// zero T and is ready to use.
type RefCell[T any] struct {
	value    T
	borrowed int
}

// New returns a RefCell holding v.
func New[T any](v T) *RefCell[T] {
	return &RefCell[T]{value: v}
}

// Ref is a shared read view into a RefCell.
type Ref[T any] struct {
	cell     *RefCell[T]
	released bool
}

// Value returns the viewed value. It must only be read, and not after
// Release.
func (r *Ref[T]) Value() *T {
	if r.released {
		panic(&BorrowError{Op: "read", Err: ErrReleased})
	}
	return &r.cell.value
}

// Release ends the view. Releasing twice is a no-op.
func (r *Ref[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.borrowed--
}

// RefMut is the exclusive write view into a RefCell.
type RefMut[T any] struct {
	cell     *RefCell[T]
	released bool
}

// Value returns the value for reading and writing until Release.
func (r *RefMut[T]) Value() *T {
	if r.released {
		panic(&BorrowError{Op: "write", Err: ErrReleased})
	}
	return &r.cell.value
}

// Release ends the view. Releasing twice is a no-op.
func (r *RefMut[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.borrowed = 0
}

// TryBorrow returns a shared view, or ErrAlreadyMutablyBorrowed while the
// exclusive view is live.
func (c *RefCell[T]) TryBorrow() (*Ref[T], error) {
	if c.borrowed == writing {
		return nil, &BorrowError{Op: "borrow", Err: ErrAlreadyMutablyBorrowed}
	}
	c.borrowed++
	return &Ref[T]{cell: c}, nil
}

// Borrow is TryBorrow that panics on conflict.
func (c *RefCell[T]) Borrow() *Ref[T] {
	r, err := c.TryBorrow()
	if err != nil {
		panic(err)
	}
	return r
}

// TryBorrowMut returns the exclusive view, or an error if any other view
// is live.
func (c *RefCell[T]) TryBorrowMut() (*RefMut[T], error) {
	switch {
	case c.borrowed == writing:
		return nil, &BorrowError{Op: "borrow mut", Err: ErrAlreadyMutablyBorrowed}
	case c.borrowed > 0:
		return nil, &BorrowError{Op: "borrow mut", Err: ErrAlreadyBorrowed}
	}
	c.borrowed = writing
	return &RefMut[T]{cell: c}, nil
}

// BorrowMut is TryBorrowMut that panics on conflict.
func (c *RefCell[T]) BorrowMut() *RefMut[T] {
	r, err := c.TryBorrowMut()
	if err != nil {
		panic(err)
	}
	return r
}

// View calls fn with a shared view that is released when fn returns.
func (c *RefCell[T]) View(fn func(v *T)) {
	r := c.Borrow()
	defer r.Release()
	fn(r.Value())
}

// Update calls fn with the exclusive view that is released when fn returns.
func (c *RefCell[T]) Update(fn func(v *T)) {
	w := c.BorrowMut()
	defer w.Release()
	fn(w.Value())
}

// Replace stores v and returns the previous value.
func (c *RefCell[T]) Replace(v T) T {
	w := c.BorrowMut()
	defer w.Release()
	old := *w.Value()
	*w.Value() = v
	return old
}

// Set stores v.
func (c *RefCell[T]) Set(v T) {
	c.Replace(v)
}

// Into moves the value out, leaving the zero T behind.
func (c *RefCell[T]) Into() T {
	var zero T
	return c.Replace(zero)
}

// Borrowed reports the number of live shared views, or -1 while the
// exclusive view is live.
func (c *RefCell[T]) Borrowed() int {
	return c.borrowed
}

func (c *RefCell[T]) String() string {
	r, err := c.TryBorrow()
	if err != nil {
		return "RefCell(<borrowed>)"
	}
	defer r.Release()
	return fmt.Sprintf("RefCell(%v)", *r.Value())
}

func (c *RefCell[T]) MarshalJSON() ([]byte, error) {
	r := c.Borrow()
	defer r.Release()
	return json.Marshal(r.Value())
}

func (c *RefCell[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("cell: decode json: %w", err)
	}
	c.Set(v)
	return nil
}

func (c *RefCell[T]) MarshalYAML() (any, error) {
	r := c.Borrow()
	defer r.Release()
	return *r.Value(), nil
}

func (c *RefCell[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("cell: decode yaml: %w", err)
	}
	c.Set(v)
	return nil
}
