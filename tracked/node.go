package tracked

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/trackstate/compare"
)

// Node is a raw container. Raw containers only expose reads; mutation goes
// through a View while its tracker has a write session open.
type Node interface {
	compare.Container
	Kind() Kind
	Len() int

	base() *nodeBase
	children() []any
}

// nodeBase carries the wrapper cache. Views are keyed by tracker id and live
// exactly as long as the node does, which is what a weak map keyed by the
// node would give us.
type nodeBase struct {
	views map[uint64]View
	// attached is set once the node has a place in some tree; see Adopt.
	attached bool
}

func (b *nodeBase) base() *nodeBase { return b }

func (b *nodeBase) cached(trackerID uint64) (View, bool) {
	v, ok := b.views[trackerID]
	return v, ok
}

func (b *nodeBase) cache(trackerID uint64, v View) {
	if b.views == nil {
		b.views = make(map[uint64]View, 1)
	}
	b.views[trackerID] = v
}

// Record is a string keyed container that keeps insertion order.
type Record struct {
	nodeBase
	keys   []string
	fields map[string]any
}

// NewRecord converts fields (recursively) into a Record. Keys are ordered
// lexically since Go maps carry no order. It panics on values From rejects.
func NewRecord(fields map[string]any) *Record {
	r := &Record{fields: make(map[string]any, len(fields))}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := segment(k); err != nil {
			panic("tracked: record field " + err.Error())
		}
		r.set(k, mustFrom(fields[k]))
	}
	return r
}

func (r *Record) Kind() Kind { return KindRecord }
func (r *Record) Len() int   { return len(r.keys) }

func (r *Record) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

func (r *Record) EqualEntries(other any, eq compare.Func) bool {
	o, ok := other.(*Record)
	if !ok || o.Len() != r.Len() {
		return false
	}
	for _, k := range r.keys {
		ov, ok := o.fields[k]
		if !ok || !eq(r.fields[k], ov) {
			return false
		}
	}
	return true
}

func (r *Record) children() []any {
	out := make([]any, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.fields[k])
	}
	return out
}

func (r *Record) set(key string, v any) {
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = v
}

func (r *Record) del(key string) bool {
	if _, ok := r.fields[key]; !ok {
		return false
	}
	delete(r.fields, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

func (r *Record) clear() {
	r.keys = nil
	r.fields = map[string]any{}
}

// List is an ordered sequence.
type List struct {
	nodeBase
	items []any
}

// NewList converts items (recursively) into a List. It panics on values From
// rejects.
func NewList(items ...any) *List {
	l := &List{items: make([]any, len(items))}
	for i, v := range items {
		l.items[i] = mustFrom(v)
	}
	return l
}

func (l *List) Kind() Kind { return KindList }
func (l *List) Len() int   { return len(l.items) }

func (l *List) At(i int) (any, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

func (l *List) Values() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) EqualEntries(other any, eq compare.Func) bool {
	o, ok := other.(*List)
	if !ok || o.Len() != l.Len() {
		return false
	}
	for i := range l.items {
		if !eq(l.items[i], o.items[i]) {
			return false
		}
	}
	return true
}

func (l *List) children() []any {
	return l.items
}

// Dict is an associative container with scalar keys that keeps insertion
// order.
type Dict struct {
	nodeBase
	keys    []any
	entries map[any]any
}

// NewDict builds a Dict from alternating key, value arguments. It panics on
// an odd argument count, keys that are not scalars or do not make a path
// segment of their own, or values From rejects.
func NewDict(kv ...any) *Dict {
	if len(kv)%2 != 0 {
		panic("tracked: NewDict needs key, value pairs")
	}
	d := &Dict{entries: make(map[any]any, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		if !validKey(kv[i]) {
			panic(fmt.Sprintf("tracked: dict key %v (%T) is not a comparable scalar", kv[i], kv[i]))
		}
		if err := d.checkKey(kv[i]); err != nil {
			panic(fmt.Sprintf("tracked: dict key %v (%T): %v", kv[i], kv[i], err))
		}
		d.put(kv[i], mustFrom(kv[i+1]))
	}
	return d
}

func (d *Dict) Kind() Kind { return KindDict }
func (d *Dict) Len() int   { return len(d.keys) }

func (d *Dict) Get(key any) (any, bool) {
	if !validKey(key) {
		return nil, false
	}
	v, ok := d.entries[key]
	return v, ok
}

func (d *Dict) Keys() []any {
	keys := make([]any, len(d.keys))
	copy(keys, d.keys)
	return keys
}

func (d *Dict) EqualEntries(other any, eq compare.Func) bool {
	o, ok := other.(*Dict)
	if !ok || o.Len() != d.Len() {
		return false
	}
	for _, k := range d.keys {
		ov, ok := o.entries[k]
		if !ok || !eq(d.entries[k], ov) {
			return false
		}
	}
	return true
}

func (d *Dict) children() []any {
	out := make([]any, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, d.entries[k])
	}
	return out
}

// checkKey refuses a new key whose path segment is already used by a
// different key, such as 1 next to "1". Existing keys always pass.
func (d *Dict) checkKey(key any) error {
	if _, ok := d.entries[key]; ok {
		return nil
	}
	seg, err := segment(key)
	if err != nil {
		return err
	}
	for _, k := range d.keys {
		if fmt.Sprint(k) == seg {
			return fmt.Errorf("%w: %v and %v", errClash, k, key)
		}
	}
	return nil
}

func (d *Dict) put(key, v any) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = v
}

func (d *Dict) del(key any) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

func (d *Dict) clear() {
	d.keys = nil
	d.entries = map[any]any{}
}

// Set is an unordered collection of scalar members.
type Set struct {
	nodeBase
	members mapset.Set[any]
}

// NewSet panics if a member is not a comparable scalar.
func NewSet(members ...any) *Set {
	s := &Set{members: mapset.NewThreadUnsafeSet[any]()}
	for _, m := range members {
		if !validKey(m) {
			panic(fmt.Sprintf("tracked: set member %v (%T) is not a comparable scalar", m, m))
		}
		s.members.Add(m)
	}
	return s
}

func (s *Set) Kind() Kind { return KindSet }
func (s *Set) Len() int   { return s.members.Cardinality() }

func (s *Set) Has(v any) bool {
	return validKey(v) && s.members.Contains(v)
}

// Members returns the members in a stable order.
func (s *Set) Members() []any {
	out := s.members.ToSlice()
	sortAny(out)
	return out
}

func (s *Set) EqualEntries(other any, _ compare.Func) bool {
	o, ok := other.(*Set)
	return ok && s.members.Equal(o.members)
}

func (s *Set) children() []any {
	return nil
}

func validKey(k any) bool {
	switch k.(type) {
	case nil:
		return false
	case float32, float64, complex64, complex128:
		// NaN keys cannot be found again
		return IsScalar(k) && k == k
	}
	return IsScalar(k)
}

func sortAny(vs []any) {
	sort.SliceStable(vs, func(i, j int) bool {
		return fmt.Sprint(vs[i]) < fmt.Sprint(vs[j])
	})
}
