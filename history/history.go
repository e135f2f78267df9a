// Package history keeps a bounded log of deep snapshots of a store's value
// and diffs between them.
package history

import (
	"errors"
	"fmt"
	"sort"

	"github.com/delaneyj/trackstate/compare"
	"github.com/delaneyj/trackstate/tracked"
)

const MinDepth = 2

var ErrNotRetained = errors.New("transaction not retained")

type Op uint8

const (
	Added Op = iota + 1
	Removed
	Replaced
)

func (op Op) String() string {
	switch op {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Replaced:
		return "replaced"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Change describes one difference between two snapshots. From and To hold
// plain Go values; From is nil for Added and To is nil for Removed.
type Change struct {
	Path string
	Op   Op
	From any
	To   any
}

func (c Change) String() string {
	path := c.Path
	if path == "" {
		path = "(root)"
	}
	switch c.Op {
	case Added:
		return fmt.Sprintf("+ %s = %v", path, c.To)
	case Removed:
		return fmt.Sprintf("- %s = %v", path, c.From)
	default:
		return fmt.Sprintf("~ %s: %v -> %v", path, c.From, c.To)
	}
}

type Entry struct {
	Tx    uint64
	Value any
}

// Log retains the most recent snapshots, up to its depth.
type Log struct {
	depth   int
	entries []Entry
	lastTx  uint64
}

// New returns a log retaining depth snapshots. Depths below MinDepth are
// raised to it.
func New(depth int) *Log {
	if depth < MinDepth {
		depth = MinDepth
	}
	return &Log{depth: depth, entries: make([]Entry, 0, depth)}
}

func (l *Log) Depth() int { return l.depth }
func (l *Log) Len() int   { return len(l.entries) }

// AddSnapshot stores a deep copy of v and returns its transaction number.
// Numbers start at 1 and only grow.
func (l *Log) AddSnapshot(v any) uint64 {
	l.lastTx++
	if len(l.entries) == l.depth {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, Entry{Tx: l.lastTx, Value: tracked.Clone(v)})
	return l.lastTx
}

// Entries returns the retained snapshots, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// SnapshotByIndex returns the nth retained snapshot, oldest first. Negative
// n counts back from the newest, so -1 is the latest.
func (l *Log) SnapshotByIndex(n int) (Entry, bool) {
	if n < 0 {
		n += len(l.entries)
	}
	if n < 0 || n >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[n], true
}

// LastDiff compares the two newest snapshots. It is empty until two exist.
func (l *Log) LastDiff() []Change {
	n := len(l.entries)
	if n < 2 {
		return nil
	}
	return Diff(l.entries[n-2].Value, l.entries[n-1].Value)
}

// DiffBetween compares snapshots a and b by transaction number.
func (l *Log) DiffBetween(a, b uint64) ([]Change, error) {
	from, ok := l.lookup(a)
	if !ok {
		return nil, fmt.Errorf("diff %d..%d: %d: %w", a, b, a, ErrNotRetained)
	}
	to, ok := l.lookup(b)
	if !ok {
		return nil, fmt.Errorf("diff %d..%d: %d: %w", a, b, b, ErrNotRetained)
	}
	return Diff(from.Value, to.Value), nil
}

func (l *Log) lookup(tx uint64) (Entry, bool) {
	for _, e := range l.entries {
		if e.Tx == tx {
			return e, true
		}
	}
	return Entry{}, false
}

// Diff lists what changed between a and b, ordered by path.
func Diff(a, b any) []Change {
	var out []Change
	diff("", a, b, &out)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

func diff(path string, a, b any, out *[]Change) {
	switch x := a.(type) {
	case *tracked.Record:
		if y, ok := b.(*tracked.Record); ok {
			diffRecord(path, x, y, out)
			return
		}
	case *tracked.List:
		if y, ok := b.(*tracked.List); ok {
			diffList(path, x, y, out)
			return
		}
	case *tracked.Dict:
		if y, ok := b.(*tracked.Dict); ok {
			diffDict(path, x, y, out)
			return
		}
	case *tracked.Set:
		if y, ok := b.(*tracked.Set); ok {
			diffSet(path, x, y, out)
			return
		}
	}
	if !compare.Ref(a, b) {
		*out = append(*out, Change{Path: path, Op: Replaced, From: tracked.ToPlain(a), To: tracked.ToPlain(b)})
	}
}

func diffRecord(path string, a, b *tracked.Record, out *[]Change) {
	for _, k := range a.Keys() {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok {
			*out = append(*out, Change{Path: tracked.JoinPath(path, k), Op: Removed, From: tracked.ToPlain(av)})
			continue
		}
		diff(tracked.JoinPath(path, k), av, bv, out)
	}
	for _, k := range b.Keys() {
		if _, ok := a.Get(k); !ok {
			bv, _ := b.Get(k)
			*out = append(*out, Change{Path: tracked.JoinPath(path, k), Op: Added, To: tracked.ToPlain(bv)})
		}
	}
}

func diffList(path string, a, b *tracked.List, out *[]Change) {
	n := max(a.Len(), b.Len())
	for i := 0; i < n; i++ {
		p := tracked.JoinPath(path, fmt.Sprint(i))
		av, aok := a.At(i)
		bv, bok := b.At(i)
		switch {
		case !bok:
			*out = append(*out, Change{Path: p, Op: Removed, From: tracked.ToPlain(av)})
		case !aok:
			*out = append(*out, Change{Path: p, Op: Added, To: tracked.ToPlain(bv)})
		default:
			diff(p, av, bv, out)
		}
	}
}

func diffDict(path string, a, b *tracked.Dict, out *[]Change) {
	for _, k := range a.Keys() {
		p := tracked.JoinPath(path, fmt.Sprint(k))
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok {
			*out = append(*out, Change{Path: p, Op: Removed, From: tracked.ToPlain(av)})
			continue
		}
		diff(p, av, bv, out)
	}
	for _, k := range b.Keys() {
		if _, ok := a.Get(k); !ok {
			bv, _ := b.Get(k)
			*out = append(*out, Change{Path: tracked.JoinPath(path, fmt.Sprint(k)), Op: Added, To: tracked.ToPlain(bv)})
		}
	}
}

func diffSet(path string, a, b *tracked.Set, out *[]Change) {
	for _, m := range a.Members() {
		if !b.Has(m) {
			*out = append(*out, Change{Path: tracked.JoinPath(path, fmt.Sprint(m)), Op: Removed, From: m})
		}
	}
	for _, m := range b.Members() {
		if !a.Has(m) {
			*out = append(*out, Change{Path: tracked.JoinPath(path, fmt.Sprint(m)), Op: Added, To: m})
		}
	}
}
