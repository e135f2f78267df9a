package tracked

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/trackstate/compare"
)

// Tracker is the per-store half of the interception layer: it gates writes
// behind a session, decides with the store's comparator whether a write
// changed anything, and collects the paths that did.
type Tracker struct {
	id  uint64
	eq  compare.Func
	ops uint64

	open        bool
	changed     bool
	recordPaths bool
	paths       []string
	pathSet     mapset.Set[string]
}

// NewTracker returns a tracker identified by id, which must be unique among
// the trackers that may wrap the same node.
func NewTracker(id uint64, eq compare.Func) *Tracker {
	if eq == nil {
		eq = compare.Ref
	}
	return &Tracker{
		id:      id,
		eq:      eq,
		pathSet: mapset.NewThreadUnsafeSet[string](),
	}
}

func (t *Tracker) ID() uint64 { return t.id }

// Equal runs the tracker's comparator.
func (t *Tracker) Equal(a, b any) bool { return t.eq(a, b) }

// Open starts a write session.
func (t *Tracker) Open() { t.open = true }

// Close ends the write session. Changes stay recorded until Reset.
func (t *Tracker) Close() { t.open = false }

func (t *Tracker) InSession() bool { return t.open }

// SetRecordPaths toggles path collection. Change detection works either way;
// paths are only needed while someone filters on them.
func (t *Tracker) SetRecordPaths(on bool) { t.recordPaths = on }

func (t *Tracker) RecordsPaths() bool { return t.recordPaths }

// Changed reports whether anything was marked since the last Reset.
func (t *Tracker) Changed() bool { return t.changed }

// Paths returns the changed paths in the order they were first recorded.
func (t *Tracker) Paths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// Writes counts applied mutations over the tracker's lifetime.
func (t *Tracker) Writes() uint64 { return t.ops }

func (t *Tracker) Reset() {
	t.changed = false
	t.paths = t.paths[:0]
	t.pathSet.Clear()
}

// MarkChanged records a change at path. The root is the empty path.
func (t *Tracker) MarkChanged(path string) {
	t.changed = true
	t.ops++
	if !t.recordPaths || !t.pathSet.Add(path) {
		return
	}
	t.paths = append(t.paths, path)
}

// Wrap returns the root view of n.
func (t *Tracker) Wrap(n Node) View {
	return t.view(n, "")
}

func (t *Tracker) view(n Node, path string) View {
	b := n.base()
	if v, ok := b.cached(t.id); ok {
		v.rebase(path)
		return v
	}
	vb := viewBase{t: t, path: path}
	var v View
	switch x := n.(type) {
	case *Record:
		v = &RecordView{viewBase: vb, rec: x}
	case *List:
		v = &ListView{viewBase: vb, list: x}
	case *Dict:
		v = &DictView{viewBase: vb, dict: x}
	case *Set:
		v = &SetView{viewBase: vb, set: x}
	default:
		panic("tracked: unknown node type")
	}
	b.cache(t.id, v)
	return v
}

// wrap returns v itself for scalars and a cached view for containers.
func (t *Tracker) wrap(v any, path string) any {
	if n, ok := v.(Node); ok {
		return t.view(n, path)
	}
	return v
}
