package fixedhash

import (
	"reflect"
	"slices"
	"unsafe"
)

var hashableType = reflect.TypeOf((*Hashable)(nil)).Elem()

// Of returns the xxh64-fs/1 digest of v, keeping the static type T. ok is
// false when v has no canonical encoding.
func Of[T any](v T) (sum uint64, ok bool) {
	h := New()
	if !h.writeValue(reflect.ValueOf(&v).Elem()) {
		return 0, false
	}
	return h.Sum64(), true
}

// Sum is Of for values whose static type is unknown.
func Sum(v any) (sum uint64, ok bool) {
	h := New()
	if !h.writeValue(reflect.ValueOf(v)) {
		return 0, false
	}
	return h.Sum64(), true
}

// WriteValue appends the canonical encoding of v. It is meant for HashInto
// implementations that embed arbitrary values. On false, h must be
// discarded.
func (h *Hasher) WriteValue(v any) bool {
	return h.writeValue(reflect.ValueOf(v))
}

func (h *Hasher) writeValue(v reflect.Value) bool {
	e := encoder{h: h, active: make(map[pointerKey]bool)}
	return e.encode(v)
}

// pointerKey identifies a pointee. A struct and its first field share an
// address, so the type is part of the key.
type pointerKey struct {
	p uintptr
	t reflect.Type
}

type encoder struct {
	h *Hasher
	// pointers on the current path, for cycle detection
	active map[pointerKey]bool
}

func (e *encoder) encode(v reflect.Value) bool {
	if !v.IsValid() {
		e.h.writeTag(0)
		return true
	}
	v = addressable(v)

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			e.h.writeTag(0)
			return true
		}
		p := pointerKey{p: v.Pointer(), t: v.Type()}
		if e.active[p] {
			return false
		}
		e.active[p] = true
		defer delete(e.active, p)
		e.h.writeTag(1)
		return e.encode(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			e.h.writeTag(0)
			return true
		}
		e.h.writeTag(1)
		e.h.WriteString(v.Elem().Type().String())
		return e.encode(v.Elem())
	}

	if hv, ok := asHashable(v); ok {
		hv.HashInto(e.h)
		return true
	}

	switch v.Kind() {
	case reflect.Bool:
		e.h.WriteBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.h.WriteInt64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.h.WriteUint64(v.Uint())
	case reflect.Float32, reflect.Float64:
		e.h.WriteFloat64(v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		e.h.WriteFloat64(real(c))
		e.h.WriteFloat64(imag(c))
	case reflect.String:
		e.h.WriteString(v.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.h.WriteBytes(v.Bytes())
			return true
		}
		return e.encodeSeq(v)
	case reflect.Array:
		return e.encodeSeq(v)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !e.encode(v.Field(i)) {
				return false
			}
		}
	case reflect.Map:
		return e.encodeMap(v)
	default:
		// Func, Chan, UnsafePointer
		return false
	}
	return true
}

func (e *encoder) encodeSeq(v reflect.Value) bool {
	e.h.WriteUint64(uint64(v.Len()))
	for i := 0; i < v.Len(); i++ {
		if !e.encode(v.Index(i)) {
			return false
		}
	}
	return true
}

func (e *encoder) encodeMap(v reflect.Value) bool {
	sums := make([]uint64, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		sub := encoder{h: New(), active: e.active}
		if !sub.encode(iter.Key()) || !sub.encode(iter.Value()) {
			return false
		}
		sums = append(sums, sub.h.Sum64())
	}
	slices.Sort(sums)

	e.h.WriteUint64(uint64(len(sums)))
	for _, s := range sums {
		e.h.WriteUint64(s)
	}
	return true
}

// addressable returns v as an addressable value whose methods can be called,
// so that Hashable is found on pointer receivers and unexported fields alike.
// Map entries and interface contents are copied; unexported fields are
// reopened in place.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		if v.CanInterface() {
			return v
		}
		return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
	}
	if !v.CanInterface() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

func asHashable(v reflect.Value) (Hashable, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	if v.Type().Implements(hashableType) {
		return v.Interface().(Hashable), true
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(hashableType) {
		return v.Addr().Interface().(Hashable), true
	}
	return nil, false
}

// CanHash reports whether values of type t have a canonical encoding.
// Interface types are accepted; the dynamic value is checked by Sum.
func CanHash(t reflect.Type) bool {
	return canHash(t, make(map[reflect.Type]bool))
}

func canHash(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true

	if t.Implements(hashableType) || reflect.PointerTo(t).Implements(hashableType) {
		return true
	}

	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Invalid:
		return false
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return canHash(t.Elem(), seen)
	case reflect.Map:
		return canHash(t.Key(), seen) && canHash(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !canHash(t.Field(i).Type, seen) {
				return false
			}
		}
	}
	return true
}
