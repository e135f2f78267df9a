package tracked

import (
	"fmt"
	"sort"
)

type ListView struct {
	viewBase
	list *List
}

func (v *ListView) Kind() Kind { return KindList }
func (v *ListView) Raw() Node  { return v.list }
func (v *ListView) Len() int   { return len(v.list.items) }

// At returns the element at i, nil when out of range.
func (v *ListView) At(i int) any {
	out, _ := v.Lookup(i)
	return out
}

func (v *ListView) Lookup(i int) (any, bool) {
	if i < 0 || i >= len(v.list.items) {
		return nil, false
	}
	return v.t.wrap(v.list.items[i], indexPath(v.path, i)), true
}

// Values returns every element, containers as views.
func (v *ListView) Values() []any {
	out := make([]any, len(v.list.items))
	for i, item := range v.list.items {
		out[i] = v.t.wrap(item, indexPath(v.path, i))
	}
	return out
}

// Each calls fn for every element until fn returns false.
func (v *ListView) Each(fn func(i int, val any) bool) {
	for i := 0; i < len(v.list.items); i++ {
		if !fn(i, v.t.wrap(v.list.items[i], indexPath(v.path, i))) {
			return
		}
	}
}

func (v *ListView) Find(pred func(val any) bool) (any, int, bool) {
	var (
		found any
		index = -1
	)
	v.Each(func(i int, val any) bool {
		if pred(val) {
			found, index = val, i
			return false
		}
		return true
	})
	return found, index, index >= 0
}

func (v *ListView) Filter(pred func(val any) bool) []any {
	var out []any
	v.Each(func(_ int, val any) bool {
		if pred(val) {
			out = append(out, val)
		}
		return true
	})
	return out
}

func (v *ListView) Map(fn func(val any) any) []any {
	out := make([]any, 0, len(v.list.items))
	v.Each(func(_ int, val any) bool {
		out = append(out, fn(val))
		return true
	})
	return out
}

// Slice returns elements [from, to) clamped to the list bounds. Negative
// indices count from the end.
func (v *ListView) Slice(from, to int) []any {
	from, to = v.clamp(from), v.clamp(to)
	if from >= to {
		return []any{}
	}
	out := make([]any, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, v.t.wrap(v.list.items[i], indexPath(v.path, i)))
	}
	return out
}

// IndexOf returns the index of the first element identical to val, or -1.
func (v *ListView) IndexOf(val any) int {
	val = rawOf(val)
	for i, item := range v.list.items {
		if item == val {
			return i
		}
	}
	return -1
}

func (v *ListView) clamp(i int) int {
	n := len(v.list.items)
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}

// SetAt replaces the element at i.
func (v *ListView) SetAt(i int, val any) error {
	path := indexPath(v.path, i)
	if err := v.gateWrite(path); err != nil {
		return err
	}
	if i < 0 || i >= len(v.list.items) {
		return fmt.Errorf("set %s: %w", pathLabel(path), ErrOutOfRange)
	}
	val, err := v.admit("set", path, val, v.list)
	if err != nil {
		return err
	}
	if v.t.eq(v.list.items[i], val) {
		return nil
	}
	v.list.items[i] = Adopt(val)
	v.t.MarkChanged(path)
	return nil
}

func (v *ListView) Append(vals ...any) error {
	return v.Insert(len(v.list.items), vals...)
}

func (v *ListView) Prepend(vals ...any) error {
	return v.Insert(0, vals...)
}

// Insert places vals before index i. i == Len appends.
func (v *ListView) Insert(i int, vals ...any) error {
	if err := v.gateOp("insert"); err != nil {
		return err
	}
	if i < 0 || i > len(v.list.items) {
		return fmt.Errorf("insert at %d in %s: %w", i, pathLabel(v.path), ErrOutOfRange)
	}
	if len(vals) == 0 {
		return nil
	}
	admitted, err := v.admitAll("insert", vals, v.list)
	if err != nil {
		return err
	}
	items := make([]any, 0, len(v.list.items)+len(admitted))
	items = append(items, v.list.items[:i]...)
	items = append(items, admitted...)
	items = append(items, v.list.items[i:]...)
	v.list.items = items
	v.t.MarkChanged(v.path)
	return nil
}

// RemoveAt removes and returns the raw element at i.
func (v *ListView) RemoveAt(i int) (any, error) {
	if err := v.gateOp("remove"); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(v.list.items) {
		return nil, fmt.Errorf("remove at %d in %s: %w", i, pathLabel(v.path), ErrOutOfRange)
	}
	out := v.list.items[i]
	v.list.items = append(v.list.items[:i], v.list.items[i+1:]...)
	v.t.MarkChanged(v.path)
	return out, nil
}

// Pop removes the last element. ok is false on an empty list.
func (v *ListView) Pop() (val any, ok bool, err error) {
	if err := v.gateOp("pop"); err != nil {
		return nil, false, err
	}
	n := len(v.list.items)
	if n == 0 {
		return nil, false, nil
	}
	val = v.list.items[n-1]
	v.list.items = v.list.items[:n-1]
	v.t.MarkChanged(v.path)
	return val, true, nil
}

// Shift removes the first element. ok is false on an empty list.
func (v *ListView) Shift() (val any, ok bool, err error) {
	if err := v.gateOp("shift"); err != nil {
		return nil, false, err
	}
	if len(v.list.items) == 0 {
		return nil, false, nil
	}
	val = v.list.items[0]
	v.list.items = v.list.items[1:]
	v.t.MarkChanged(v.path)
	return val, true, nil
}

// Splice removes deleteCount elements starting at start, inserts vals in
// their place and returns the removed raw elements. start and deleteCount
// are clamped like Slice.
func (v *ListView) Splice(start, deleteCount int, vals ...any) ([]any, error) {
	if err := v.gateOp("splice"); err != nil {
		return nil, err
	}
	admitted, err := v.admitAll("splice", vals, v.list)
	if err != nil {
		return nil, err
	}
	start = v.clamp(start)
	end := start + max(deleteCount, 0)
	if end > len(v.list.items) {
		end = len(v.list.items)
	}
	removed := make([]any, end-start)
	copy(removed, v.list.items[start:end])
	if len(removed) == 0 && len(admitted) == 0 {
		return removed, nil
	}

	items := make([]any, 0, len(v.list.items)-len(removed)+len(admitted))
	items = append(items, v.list.items[:start]...)
	items = append(items, admitted...)
	items = append(items, v.list.items[end:]...)
	v.list.items = items
	v.t.MarkChanged(v.path)
	return removed, nil
}

// Sort orders the list with less, which sees raw elements. Only a sort that
// moves something counts as a change.
func (v *ListView) Sort(less func(a, b any) bool) error {
	if err := v.gateOp("sort"); err != nil {
		return err
	}
	before := make([]any, len(v.list.items))
	copy(before, v.list.items)
	sort.SliceStable(v.list.items, func(i, j int) bool {
		return less(v.list.items[i], v.list.items[j])
	})
	if v.moved(before) {
		v.t.MarkChanged(v.path)
	}
	return nil
}

func (v *ListView) Reverse() error {
	if err := v.gateOp("reverse"); err != nil {
		return err
	}
	before := make([]any, len(v.list.items))
	copy(before, v.list.items)
	for i, j := 0, len(v.list.items)-1; i < j; i, j = i+1, j-1 {
		v.list.items[i], v.list.items[j] = v.list.items[j], v.list.items[i]
	}
	if v.moved(before) {
		v.t.MarkChanged(v.path)
	}
	return nil
}

func (v *ListView) moved(before []any) bool {
	for i := range before {
		if before[i] != v.list.items[i] {
			return true
		}
	}
	return false
}

func (v *ListView) Clear() error {
	if err := v.gateOp("clear"); err != nil {
		return err
	}
	if len(v.list.items) == 0 {
		return nil
	}
	v.list.items = nil
	v.t.MarkChanged(v.path)
	return nil
}

// Truncate drops everything from index n on.
func (v *ListView) Truncate(n int) error {
	if err := v.gateOp("truncate"); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("truncate %s to %d: %w", pathLabel(v.path), n, ErrOutOfRange)
	}
	if n >= len(v.list.items) {
		return nil
	}
	v.list.items = v.list.items[:n]
	v.t.MarkChanged(v.path)
	return nil
}
