// Package ownedref holds a value that is either borrowed from memory owned by
// someone else or owned by the holder itself.
//
// An observer that was built around a pointer into a running target keeps
// that pointer as a Ref. Once the observer is given its own copy (for example
// after it was decoded on a remote worker, where the target memory does not
// exist) it holds an Owned value. Both variants are read through AsRef, so
// callers never special-case which one is active.
package ownedref

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNilRef is the panic value when a Ref or Boxed variant is built from a nil pointer.
	ErrNilRef = errors.New("ownedref: nil reference")

	// ErrEmpty is the panic value when an empty OwnedRef is accessed.
	ErrEmpty = errors.New("ownedref: empty")
)

// OwnedRef is a two-variant union: Ref points at caller-owned memory that
// must outlive every read through it, Owned points at a heap value whose
// lifetime is that of the OwnedRef. Exactly one variant is active.
//
// The zero value is empty. An OwnedRef also becomes empty after Take.
// Reading an empty OwnedRef panics with ErrEmpty.
type OwnedRef[T any] struct {
	ref   *T
	owned *T
}

// Ref borrows p. The caller keeps ownership of *p.
func Ref[T any](p *T) OwnedRef[T] {
	if p == nil {
		panic(ErrNilRef)
	}
	return OwnedRef[T]{ref: p}
}

// Owned stores a private copy of v.
func Owned[T any](v T) OwnedRef[T] {
	return OwnedRef[T]{owned: &v}
}

// Boxed takes ownership of an already allocated value. The caller must not
// keep using p afterwards.
func Boxed[T any](p *T) OwnedRef[T] {
	if p == nil {
		panic(ErrNilRef)
	}
	return OwnedRef[T]{owned: p}
}

// AsRef returns a pointer to the current value regardless of the variant.
func (o OwnedRef[T]) AsRef() *T {
	switch {
	case o.ref != nil:
		return o.ref
	case o.owned != nil:
		return o.owned
	default:
		panic(ErrEmpty)
	}
}

// IsOwned reports whether the Owned variant is active.
func (o OwnedRef[T]) IsOwned() bool {
	return o.ref == nil && o.owned != nil
}

// IsEmpty reports whether neither variant is populated.
func (o OwnedRef[T]) IsEmpty() bool {
	return o.ref == nil && o.owned == nil
}

// Set drops any borrowed reference and owns v from now on.
func (o *OwnedRef[T]) Set(v T) {
	o.ref = nil
	o.owned = &v
}

// Take returns the value and leaves o empty. A borrowed value is cloned
// (see Clone), an owned value is moved out.
func (o *OwnedRef[T]) Take() T {
	var v T
	switch {
	case o.ref != nil:
		v = Clone(*o.ref)
	case o.owned != nil:
		v = *o.owned
	default:
		panic(ErrEmpty)
	}
	o.ref, o.owned = nil, nil
	return v
}

func (o OwnedRef[T]) String() string {
	switch {
	case o.ref != nil:
		return fmt.Sprintf("Ref(%v)", *o.ref)
	case o.owned != nil:
		return fmt.Sprintf("Owned(%v)", *o.owned)
	default:
		return "Empty"
	}
}

// MarshalJSON encodes the current value only; the variant is not part of
// the wire form.
func (o OwnedRef[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.AsRef())
}

// UnmarshalJSON always produces the Owned variant.
func (o *OwnedRef[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("ownedref: decode json: %w", err)
	}
	o.Set(v)
	return nil
}

func (o OwnedRef[T]) MarshalYAML() (any, error) {
	return o.AsRef(), nil
}

// UnmarshalYAML always produces the Owned variant.
func (o *OwnedRef[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("ownedref: decode yaml: %w", err)
	}
	o.Set(v)
	return nil
}
