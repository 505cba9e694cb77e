package ownedref

import "reflect"

// Cloner is implemented by types that know how to copy themselves.
type Cloner[T any] interface {
	Clone() T
}

// Clone returns a copy of v that shares no mutable memory with it.
// Types implementing Cloner are copied with their own Clone method.
// Everything else is copied structurally: pointers, slices, maps and
// interfaces are followed, pointer cycles are reproduced in the copy.
// Unexported struct fields are copied shallowly.
func Clone[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	if c, ok := any(&v).(Cloner[T]); ok {
		return c.Clone()
	}

	src := reflect.ValueOf(&v).Elem()
	dst := reflect.New(src.Type()).Elem()
	deepCopy(dst, src, make(map[pointee]reflect.Value))
	return *dst.Addr().Interface().(*T)
}

// pointee identifies what a pointer points at. Pointers to a struct and to
// its first field, or to two zero-size values, can share an address, so the
// type is part of the key.
type pointee struct {
	p uintptr
	t reflect.Type
}

func deepCopy(dst, src reflect.Value, seen map[pointee]reflect.Value) {
	switch src.Kind() {
	case reflect.Ptr:
		if src.IsNil() {
			return
		}
		key := pointee{p: src.Pointer(), t: src.Type()}
		if p, ok := seen[key]; ok {
			dst.Set(p)
			return
		}
		p := reflect.New(src.Type().Elem())
		seen[key] = p
		deepCopy(p.Elem(), src.Elem(), seen)
		dst.Set(p)
	case reflect.Interface:
		if src.IsNil() {
			return
		}
		inner := reflect.New(src.Elem().Type()).Elem()
		deepCopy(inner, src.Elem(), seen)
		dst.Set(inner)
	case reflect.Slice:
		if src.IsNil() {
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			deepCopy(s.Index(i), src.Index(i), seen)
		}
		dst.Set(s)
	case reflect.Map:
		if src.IsNil() {
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			k := reflect.New(src.Type().Key()).Elem()
			deepCopy(k, iter.Key(), seen)
			e := reflect.New(src.Type().Elem()).Elem()
			deepCopy(e, iter.Value(), seen)
			m.SetMapIndex(k, e)
		}
		dst.Set(m)
	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			deepCopy(dst.Index(i), src.Index(i), seen)
		}
	case reflect.Struct:
		dst.Set(src)
		for i := 0; i < src.NumField(); i++ {
			if !dst.Field(i).CanSet() {
				continue
			}
			deepCopy(dst.Field(i), src.Field(i), seen)
		}
	default:
		dst.Set(src)
	}
}
