// Package compare holds the equality strategies a store uses to decide
// whether a write changed anything.
//
// A Strategy is picked once when a store is created and compiled into a
// single Func, so writes never branch on which strategy is active.
package compare

import (
	"reflect"
	"time"
)

// Func reports whether a and b are equal, i.e. whether writing b over a is a
// no-op.
type Func func(a, b any) bool

// Container is implemented by values that can compare their first level of
// entries against another value of the same kind.
type Container interface {
	EqualEntries(other any, eq Func) bool
}

type kind uint8

const (
	kindRef kind = iota
	kindShallow
	kindCustom
)

// Strategy selects one of the comparators.
type Strategy struct {
	kind kind
	fn   Func
}

var (
	// ByRef compares scalars by value and everything else by identity.
	ByRef = Strategy{kind: kindRef}
	// ByShallow compares the first level of containers by identity.
	ByShallow = Strategy{kind: kindShallow}
)

// ByFunc wraps a caller supplied predicate. A nil fn behaves like ByRef.
func ByFunc(fn Func) Strategy {
	if fn == nil {
		return ByRef
	}
	return Strategy{kind: kindCustom, fn: fn}
}

func (s Strategy) String() string {
	switch s.kind {
	case kindShallow:
		return "shallow"
	case kindCustom:
		return "custom"
	default:
		return "ref"
	}
}

// Compile resolves the strategy to its comparator.
func Compile(s Strategy) Func {
	switch s.kind {
	case kindShallow:
		return Shallow
	case kindCustom:
		return s.fn
	default:
		return Ref
	}
}

// Ref is identity equality. It never panics on uncomparable dynamic types;
// maps, slices and funcs compare by the address of their backing storage.
func Ref(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	if b == nil {
		return false
	}
	return refValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

// Shallow compares containers entry by entry using Ref. Anything that is not
// a container falls back to Ref.
func Shallow(a, b any) bool {
	if c, ok := a.(Container); ok {
		if Ref(a, b) {
			return true
		}
		return c.EqualEntries(b, Ref)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map:
		if va.Len() != vb.Len() {
			return false
		}
		if va.Pointer() == vb.Pointer() {
			return true
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !refValue(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !refValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		return shallowStruct(va, vb)
	case reflect.Pointer:
		if va.Pointer() == vb.Pointer() {
			return true
		}
		if va.IsNil() || vb.IsNil() || va.Elem().Kind() != reflect.Struct {
			return false
		}
		return shallowStruct(va.Elem(), vb.Elem())
	default:
		return refValue(va, vb)
	}
}

func shallowStruct(a, b reflect.Value) bool {
	for i := 0; i < a.NumField(); i++ {
		if !refValue(a.Field(i), b.Field(i)) {
			return false
		}
	}
	return true
}

func refValue(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Len() == b.Len() && a.Pointer() == b.Pointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return refValue(a.Elem(), b.Elem())
	case reflect.Struct:
		if a.Comparable() {
			return a.Equal(b)
		}
		return shallowStruct(a, b)
	case reflect.Array:
		if a.Comparable() {
			return a.Equal(b)
		}
		for i := 0; i < a.Len(); i++ {
			if !refValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	default:
		return a.Equal(b)
	}
}
