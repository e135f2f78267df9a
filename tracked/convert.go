package tracked

import (
	"fmt"
	"reflect"
	"sort"
)

// From converts plain Go data into tracked form: map[string]... becomes a
// Record, other maps with scalar keys become a Dict, slices and arrays become
// a List. Scalars and existing containers pass through unchanged.
func From(v any) (any, error) {
	switch x := v.(type) {
	case Node:
		if KindOf(x) == KindUnsupported {
			return nil, fmt.Errorf("%w: nil %T", ErrUnsupported, x)
		}
		return x, nil
	case View:
		return nil, fmt.Errorf("%w: %s view at %s aliases tracked state", ErrUnsupported, x.Kind(), pathLabel(x.Path()))
	case map[string]any:
		r := &Record{fields: make(map[string]any, len(x))}
		for _, k := range sortedKeys(reflect.ValueOf(x)) {
			if _, err := segment(k.String()); err != nil {
				return nil, fmt.Errorf("%w: field %w", ErrUnsupported, err)
			}
			child, err := From(x[k.String()])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.String(), err)
			}
			r.set(k.String(), child)
		}
		return r, nil
	case []any:
		l := &List{items: make([]any, len(x))}
		for i, item := range x {
			child, err := From(item)
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			l.items[i] = child
		}
		return l, nil
	}
	if IsScalar(v) {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		keys := sortedKeys(rv)
		if rv.Type().Key().Kind() == reflect.String {
			r := &Record{fields: make(map[string]any, rv.Len())}
			for _, k := range keys {
				if _, err := segment(k.String()); err != nil {
					return nil, fmt.Errorf("%w: field %w", ErrUnsupported, err)
				}
				child, err := From(rv.MapIndex(k).Interface())
				if err != nil {
					return nil, fmt.Errorf("%s: %w", k.String(), err)
				}
				r.set(k.String(), child)
			}
			return r, nil
		}
		d := &Dict{entries: make(map[any]any, rv.Len())}
		for _, k := range keys {
			key := k.Interface()
			if !validKey(key) {
				return nil, fmt.Errorf("%w: dict key of type %T", ErrUnsupported, key)
			}
			if err := d.checkKey(key); err != nil {
				return nil, fmt.Errorf("%w: dict key %w", ErrUnsupported, err)
			}
			child, err := From(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("%v: %w", key, err)
			}
			d.put(key, child)
		}
		return d, nil
	case reflect.Slice, reflect.Array:
		l := &List{items: make([]any, rv.Len())}
		for i := 0; i < rv.Len(); i++ {
			child, err := From(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			l.items[i] = child
		}
		return l, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
}

func mustFrom(v any) any {
	out, err := From(v)
	if err != nil {
		panic("tracked: " + err.Error())
	}
	return out
}

func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	return keys
}

// ToPlain converts tracked data back into plain Go values: Record to
// map[string]any, List to []any, Dict to map[any]any and Set to a sorted
// []any. Views are read through to their raw node.
func ToPlain(v any) any {
	if view, ok := v.(View); ok {
		v = view.Raw()
	}
	switch x := v.(type) {
	case *Record:
		out := make(map[string]any, x.Len())
		for _, k := range x.keys {
			out[k] = ToPlain(x.fields[k])
		}
		return out
	case *List:
		out := make([]any, len(x.items))
		for i, item := range x.items {
			out[i] = ToPlain(item)
		}
		return out
	case *Dict:
		out := make(map[any]any, x.Len())
		for _, k := range x.keys {
			out[k] = ToPlain(x.entries[k])
		}
		return out
	case *Set:
		return x.Members()
	default:
		return v
	}
}

// Clone deep copies v. The copy shares nothing with the original, including
// wrapper caches.
func Clone(v any) any {
	if view, ok := v.(View); ok {
		v = view.Raw()
	}
	switch x := v.(type) {
	case *Record:
		out := &Record{keys: make([]string, len(x.keys)), fields: make(map[string]any, len(x.keys))}
		copy(out.keys, x.keys)
		for _, k := range x.keys {
			out.fields[k] = Clone(x.fields[k])
		}
		return out
	case *List:
		out := &List{items: make([]any, len(x.items))}
		for i, item := range x.items {
			out.items[i] = Clone(item)
		}
		return out
	case *Dict:
		out := &Dict{keys: make([]any, len(x.keys)), entries: make(map[any]any, len(x.keys))}
		copy(out.keys, x.keys)
		for _, k := range x.keys {
			out.entries[k] = Clone(x.entries[k])
		}
		return out
	case *Set:
		return &Set{members: x.members.Clone()}
	default:
		return v
	}
}

// Adopt gives v a place in one tree. Every container in v that already has a
// place somewhere, including a second occurrence inside v itself, is replaced
// by a deep copy, so two paths never share a node and a store never shares
// one with another store.
func Adopt(v any) any {
	n, ok := v.(Node)
	if !ok {
		return v
	}
	if n.base().attached {
		n = Clone(n).(Node)
	}
	n.base().attached = true
	switch x := n.(type) {
	case *Record:
		for _, k := range x.keys {
			x.fields[k] = Adopt(x.fields[k])
		}
	case *List:
		for i, item := range x.items {
			x.items[i] = Adopt(item)
		}
	case *Dict:
		for _, k := range x.keys {
			x.entries[k] = Adopt(x.entries[k])
		}
	}
	return n
}

// contains reports whether target is n or reachable from n.
func contains(n Node, target Node) bool {
	if n == target {
		return true
	}
	for _, child := range n.children() {
		if cn, ok := child.(Node); ok && contains(cn, target) {
			return true
		}
	}
	return false
}
